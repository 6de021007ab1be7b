package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// Medications.

const medicationColumns = `id, user_id, name, dose, taken_at, note, created_at`

func scanMedication(row interface {
	Scan(dest ...interface{}) error
}) (Medication, error) {
	var m Medication
	err := row.Scan(&m.ID, &m.UserID, &m.Name, &m.Dose, &m.TakenAt, &m.Note, &m.CreatedAt)
	return m, err
}

const createMedication = `-- name: CreateMedication :one
INSERT INTO medications (id, user_id, name, dose, taken_at, note)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + medicationColumns

type CreateMedicationParams struct {
	ID      string
	UserID  string
	Name    string
	Dose    pgtype.Text
	TakenAt pgtype.Timestamptz
	Note    pgtype.Text
}

func (q *Queries) CreateMedication(ctx context.Context, arg CreateMedicationParams) (Medication, error) {
	row := q.db.QueryRow(ctx, createMedication,
		arg.ID, arg.UserID, arg.Name, arg.Dose, arg.TakenAt, arg.Note)
	return scanMedication(row)
}

const getMedication = `-- name: GetMedication :one
SELECT ` + medicationColumns + ` FROM medications WHERE id = $1`

func (q *Queries) GetMedication(ctx context.Context, id string) (Medication, error) {
	return scanMedication(q.db.QueryRow(ctx, getMedication, id))
}

const listMedications = `-- name: ListMedications :many
SELECT ` + medicationColumns + ` FROM medications
WHERE user_id = $1
  AND ($2::timestamptz IS NULL OR taken_at >= $2)
  AND ($3::timestamptz IS NULL OR taken_at <= $3)
ORDER BY taken_at DESC`

type ListMedicationsParams struct {
	UserID   string
	DateFrom pgtype.Timestamptz
	DateTo   pgtype.Timestamptz
}

func (q *Queries) ListMedications(ctx context.Context, arg ListMedicationsParams) ([]Medication, error) {
	rows, err := q.db.Query(ctx, listMedications, arg.UserID, arg.DateFrom, arg.DateTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const updateMedication = `-- name: UpdateMedication :one
UPDATE medications SET
    name     = COALESCE($2, name),
    dose     = COALESCE($3, dose),
    taken_at = COALESCE($4, taken_at),
    note     = COALESCE($5, note)
WHERE id = $1
RETURNING ` + medicationColumns

type UpdateMedicationParams struct {
	ID      string
	Name    pgtype.Text
	Dose    pgtype.Text
	TakenAt pgtype.Timestamptz
	Note    pgtype.Text
}

func (q *Queries) UpdateMedication(ctx context.Context, arg UpdateMedicationParams) (Medication, error) {
	row := q.db.QueryRow(ctx, updateMedication, arg.ID, arg.Name, arg.Dose, arg.TakenAt, arg.Note)
	return scanMedication(row)
}

const deleteMedication = `-- name: DeleteMedication :exec
DELETE FROM medications WHERE id = $1`

func (q *Queries) DeleteMedication(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, deleteMedication, id)
	return err
}

const listMedicationsSince = `-- name: ListMedicationsSince :many
SELECT ` + medicationColumns + ` FROM medications
WHERE user_id = $1 AND taken_at >= $2
ORDER BY taken_at ASC`

type ListMedicationsSinceParams struct {
	UserID string
	Since  pgtype.Timestamptz
}

func (q *Queries) ListMedicationsSince(ctx context.Context, arg ListMedicationsSinceParams) ([]Medication, error) {
	rows, err := q.db.Query(ctx, listMedicationsSince, arg.UserID, arg.Since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const listMedicationsForDoctor = `-- name: ListMedicationsForDoctor :many
SELECT m.id, m.user_id, m.name, m.dose, m.taken_at, m.note, m.created_at
FROM medications m
JOIN users u ON u.user_id = m.user_id
WHERE u.doctor_id = $1
  AND ($2::timestamptz IS NULL OR m.taken_at >= $2)
  AND ($3::timestamptz IS NULL OR m.taken_at <= $3)
ORDER BY m.taken_at DESC`

type ListMedicationsForDoctorParams struct {
	DoctorID string
	DateFrom pgtype.Timestamptz
	DateTo   pgtype.Timestamptz
}

func (q *Queries) ListMedicationsForDoctor(ctx context.Context, arg ListMedicationsForDoctorParams) ([]Medication, error) {
	rows, err := q.db.Query(ctx, listMedicationsForDoctor, arg.DoctorID, arg.DateFrom, arg.DateTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// Stress notes.

const stressNoteColumns = `id, user_id, level, description, noted_at, created_at`

func scanStressNote(row interface {
	Scan(dest ...interface{}) error
}) (StressNote, error) {
	var s StressNote
	err := row.Scan(&s.ID, &s.UserID, &s.Level, &s.Description, &s.NotedAt, &s.CreatedAt)
	return s, err
}

const createStressNote = `-- name: CreateStressNote :one
INSERT INTO stress_notes (id, user_id, level, description, noted_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + stressNoteColumns

type CreateStressNoteParams struct {
	ID          string
	UserID      string
	Level       int32
	Description pgtype.Text
	NotedAt     pgtype.Timestamptz
}

func (q *Queries) CreateStressNote(ctx context.Context, arg CreateStressNoteParams) (StressNote, error) {
	row := q.db.QueryRow(ctx, createStressNote,
		arg.ID, arg.UserID, arg.Level, arg.Description, arg.NotedAt)
	return scanStressNote(row)
}

const getStressNote = `-- name: GetStressNote :one
SELECT ` + stressNoteColumns + ` FROM stress_notes WHERE id = $1`

func (q *Queries) GetStressNote(ctx context.Context, id string) (StressNote, error) {
	return scanStressNote(q.db.QueryRow(ctx, getStressNote, id))
}

const listStressNotes = `-- name: ListStressNotes :many
SELECT ` + stressNoteColumns + ` FROM stress_notes
WHERE user_id = $1
  AND ($2::timestamptz IS NULL OR noted_at >= $2)
  AND ($3::timestamptz IS NULL OR noted_at <= $3)
ORDER BY noted_at DESC`

type ListStressNotesParams struct {
	UserID   string
	DateFrom pgtype.Timestamptz
	DateTo   pgtype.Timestamptz
}

func (q *Queries) ListStressNotes(ctx context.Context, arg ListStressNotesParams) ([]StressNote, error) {
	rows, err := q.db.Query(ctx, listStressNotes, arg.UserID, arg.DateFrom, arg.DateTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StressNote
	for rows.Next() {
		s, err := scanStressNote(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const updateStressNote = `-- name: UpdateStressNote :one
UPDATE stress_notes SET
    level       = COALESCE($2, level),
    description = COALESCE($3, description),
    noted_at    = COALESCE($4, noted_at)
WHERE id = $1
RETURNING ` + stressNoteColumns

type UpdateStressNoteParams struct {
	ID          string
	Level       pgtype.Int4
	Description pgtype.Text
	NotedAt     pgtype.Timestamptz
}

func (q *Queries) UpdateStressNote(ctx context.Context, arg UpdateStressNoteParams) (StressNote, error) {
	row := q.db.QueryRow(ctx, updateStressNote, arg.ID, arg.Level, arg.Description, arg.NotedAt)
	return scanStressNote(row)
}

const deleteStressNote = `-- name: DeleteStressNote :exec
DELETE FROM stress_notes WHERE id = $1`

func (q *Queries) DeleteStressNote(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, deleteStressNote, id)
	return err
}

const listStressNotesSince = `-- name: ListStressNotesSince :many
SELECT ` + stressNoteColumns + ` FROM stress_notes
WHERE user_id = $1 AND noted_at >= $2
ORDER BY noted_at ASC`

type ListStressNotesSinceParams struct {
	UserID string
	Since  pgtype.Timestamptz
}

func (q *Queries) ListStressNotesSince(ctx context.Context, arg ListStressNotesSinceParams) ([]StressNote, error) {
	rows, err := q.db.Query(ctx, listStressNotesSince, arg.UserID, arg.Since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StressNote
	for rows.Next() {
		s, err := scanStressNote(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// Reminders.

const reminderColumns = `id, user_id, text, remind_at, is_done, created_at`

func scanReminder(row interface {
	Scan(dest ...interface{}) error
}) (Reminder, error) {
	var r Reminder
	err := row.Scan(&r.ID, &r.UserID, &r.Text, &r.RemindAt, &r.IsDone, &r.CreatedAt)
	return r, err
}

const createReminder = `-- name: CreateReminder :one
INSERT INTO reminders (id, user_id, text, remind_at)
VALUES ($1, $2, $3, $4)
RETURNING ` + reminderColumns

type CreateReminderParams struct {
	ID       string
	UserID   string
	Text     string
	RemindAt pgtype.Timestamptz
}

func (q *Queries) CreateReminder(ctx context.Context, arg CreateReminderParams) (Reminder, error) {
	row := q.db.QueryRow(ctx, createReminder, arg.ID, arg.UserID, arg.Text, arg.RemindAt)
	return scanReminder(row)
}

const getReminder = `-- name: GetReminder :one
SELECT ` + reminderColumns + ` FROM reminders WHERE id = $1`

func (q *Queries) GetReminder(ctx context.Context, id string) (Reminder, error) {
	return scanReminder(q.db.QueryRow(ctx, getReminder, id))
}

const listReminders = `-- name: ListReminders :many
SELECT ` + reminderColumns + ` FROM reminders
WHERE user_id = $1
  AND ($2::boolean IS NULL OR is_done = $2)
ORDER BY remind_at DESC`

type ListRemindersParams struct {
	UserID string
	IsDone pgtype.Bool
}

func (q *Queries) ListReminders(ctx context.Context, arg ListRemindersParams) ([]Reminder, error) {
	rows, err := q.db.Query(ctx, listReminders, arg.UserID, arg.IsDone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const updateReminder = `-- name: UpdateReminder :one
UPDATE reminders SET
    text      = COALESCE($2, text),
    remind_at = COALESCE($3, remind_at),
    is_done   = COALESCE($4, is_done)
WHERE id = $1
RETURNING ` + reminderColumns

type UpdateReminderParams struct {
	ID       string
	Text     pgtype.Text
	RemindAt pgtype.Timestamptz
	IsDone   pgtype.Bool
}

func (q *Queries) UpdateReminder(ctx context.Context, arg UpdateReminderParams) (Reminder, error) {
	row := q.db.QueryRow(ctx, updateReminder, arg.ID, arg.Text, arg.RemindAt, arg.IsDone)
	return scanReminder(row)
}

const deleteReminder = `-- name: DeleteReminder :exec
DELETE FROM reminders WHERE id = $1`

func (q *Queries) DeleteReminder(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, deleteReminder, id)
	return err
}

// Meal photos.

const mealPhotoColumns = `id, event_id, photo_path, food_name, calories, carbs, sugars, proteins, fats, description, confidence, portion_size, analyzed_at`

func scanMealPhoto(row interface {
	Scan(dest ...interface{}) error
}) (MealPhoto, error) {
	var p MealPhoto
	err := row.Scan(
		&p.ID,
		&p.EventID,
		&p.PhotoPath,
		&p.FoodName,
		&p.Calories,
		&p.Carbs,
		&p.Sugars,
		&p.Proteins,
		&p.Fats,
		&p.Description,
		&p.Confidence,
		&p.PortionSize,
		&p.AnalyzedAt,
	)
	return p, err
}

const createMealPhoto = `-- name: CreateMealPhoto :one
INSERT INTO meal_photos (id, event_id, photo_path, food_name, calories, carbs, sugars, proteins, fats, description, confidence, portion_size, analyzed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING ` + mealPhotoColumns

type CreateMealPhotoParams struct {
	ID          string
	EventID     string
	PhotoPath   string
	FoodName    pgtype.Text
	Calories    pgtype.Float8
	Carbs       pgtype.Float8
	Sugars      pgtype.Float8
	Proteins    pgtype.Float8
	Fats        pgtype.Float8
	Description pgtype.Text
	Confidence  pgtype.Float8
	PortionSize pgtype.Text
	AnalyzedAt  pgtype.Timestamptz
}

func (q *Queries) CreateMealPhoto(ctx context.Context, arg CreateMealPhotoParams) (MealPhoto, error) {
	row := q.db.QueryRow(ctx, createMealPhoto,
		arg.ID,
		arg.EventID,
		arg.PhotoPath,
		arg.FoodName,
		arg.Calories,
		arg.Carbs,
		arg.Sugars,
		arg.Proteins,
		arg.Fats,
		arg.Description,
		arg.Confidence,
		arg.PortionSize,
		arg.AnalyzedAt,
	)
	return scanMealPhoto(row)
}

const getMealPhotoByEvent = `-- name: GetMealPhotoByEvent :one
SELECT ` + mealPhotoColumns + ` FROM meal_photos WHERE event_id = $1`

func (q *Queries) GetMealPhotoByEvent(ctx context.Context, eventID string) (MealPhoto, error) {
	return scanMealPhoto(q.db.QueryRow(ctx, getMealPhotoByEvent, eventID))
}

const deleteMealPhoto = `-- name: DeleteMealPhoto :exec
DELETE FROM meal_photos WHERE id = $1`

func (q *Queries) DeleteMealPhoto(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, deleteMealPhoto, id)
	return err
}
