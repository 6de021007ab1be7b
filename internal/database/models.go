package database

import (
	"net/netip"

	"github.com/jackc/pgx/v5/pgtype"
)

const (
	RoleAdmin  = "admin"
	RoleDoctor = "doctor"
	RoleUser   = "user"
)

const (
	EventTypeMeal     = "meal"
	EventTypeWalk     = "walk"
	EventTypeSport    = "sport"
	EventTypeMedicine = "medicine"
	EventTypeOther    = "other"
)

type User struct {
	UserID           string             `json:"user_id"`
	Email            string             `json:"email"`
	PasswordHash     pgtype.Text        `json:"-"`
	Name             string             `json:"name"`
	Role             string             `json:"role"`
	Phone            pgtype.Text        `json:"phone"`
	TelegramID       pgtype.Int8        `json:"telegram_id"`
	TelegramUsername pgtype.Text        `json:"telegram_username"`
	DoctorID         pgtype.Text        `json:"doctor_id"`
	EmailVerified    bool               `json:"email_verified"`
	Provider         pgtype.Text        `json:"provider"`
	ProviderUserID   pgtype.Text        `json:"-"`
	AvatarUrl        pgtype.Text        `json:"avatar_url"`
	CreatedAt        pgtype.Timestamptz `json:"created_at"`
	UpdatedAt        pgtype.Timestamptz `json:"updated_at"`
}

type RefreshToken struct {
	ID         string             `json:"id"`
	UserID     string             `json:"user_id"`
	TokenHash  string             `json:"-"`
	DeviceInfo pgtype.Text        `json:"device_info"`
	IpAddress  *netip.Addr        `json:"ip_address"`
	ExpiresAt  pgtype.Timestamptz `json:"expires_at"`
	RevokedAt  pgtype.Timestamptz `json:"revoked_at"`
	CreatedAt  pgtype.Timestamptz `json:"created_at"`
}

type GlucoseMeasurement struct {
	ID         string             `json:"id"`
	UserID     string             `json:"user_id"`
	Value      float64            `json:"value"`
	MeasuredAt pgtype.Timestamptz `json:"measured_at"`
	Note       pgtype.Text        `json:"note"`
	CreatedAt  pgtype.Timestamptz `json:"created_at"`
}

type Event struct {
	ID              string             `json:"id"`
	UserID          string             `json:"user_id"`
	EventType       string             `json:"event_type"`
	Title           pgtype.Text        `json:"title"`
	StartTime       pgtype.Timestamptz `json:"start_time"`
	DurationMinutes pgtype.Int4        `json:"duration_minutes"`
	EndTime         pgtype.Timestamptz `json:"end_time"`
	Calories        pgtype.Float8      `json:"calories"`
	Carbs           pgtype.Float8      `json:"carbs"`
	Sugars          pgtype.Float8      `json:"sugars"`
	Proteins        pgtype.Float8      `json:"proteins"`
	Fats            pgtype.Float8      `json:"fats"`
	Steps           pgtype.Int4        `json:"steps"`
	Color           pgtype.Text        `json:"color"`
	Note            pgtype.Text        `json:"note"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
}

type MealPhoto struct {
	ID          string             `json:"id"`
	EventID     string             `json:"event_id"`
	PhotoPath   string             `json:"photo_path"`
	FoodName    pgtype.Text        `json:"food_name"`
	Calories    pgtype.Float8      `json:"calories"`
	Carbs       pgtype.Float8      `json:"carbs"`
	Sugars      pgtype.Float8      `json:"sugars"`
	Proteins    pgtype.Float8      `json:"proteins"`
	Fats        pgtype.Float8      `json:"fats"`
	Description pgtype.Text        `json:"description"`
	Confidence  pgtype.Float8      `json:"confidence"`
	PortionSize pgtype.Text        `json:"portion_size"`
	AnalyzedAt  pgtype.Timestamptz `json:"analyzed_at"`
}

type Medication struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Name      string             `json:"name"`
	Dose      pgtype.Text        `json:"dose"`
	TakenAt   pgtype.Timestamptz `json:"taken_at"`
	Note      pgtype.Text        `json:"note"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type StressNote struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	Level       int32              `json:"level"`
	Description pgtype.Text        `json:"description"`
	NotedAt     pgtype.Timestamptz `json:"noted_at"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

type Reminder struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Text      string             `json:"text"`
	RemindAt  pgtype.Timestamptz `json:"remind_at"`
	IsDone    bool               `json:"is_done"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type HealthRecommendation struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	Content     string             `json:"content"`
	Forecast    []byte             `json:"forecast"`
	GeneratedAt pgtype.Timestamptz `json:"generated_at"`
}

type TelegramAuthCode struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Code      string             `json:"code"`
	ExpiresAt pgtype.Timestamptz `json:"expires_at"`
	Used      bool               `json:"used"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}
