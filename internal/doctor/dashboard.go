package doctor

import (
	"math"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/glucodiary/glucodiary/internal/database"
	"github.com/glucodiary/glucodiary/internal/utility"
)

const (
	criticalHighThreshold = 10.0
	criticalLowThreshold  = 3.0
	criticalReadingsLimit = 10
)

// DashboardHandler handles GET /doctor/dashboard with the headline
// figures for the doctor's patient pool.
func DashboardHandler(c echo.Context) error {
	ctx := c.Request().Context()

	doctorID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	total, err := queries.CountPatientsByDoctor(ctx, doctorID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to count patients")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	active, err := queries.CountActivePatientsByDoctor(ctx, doctorID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to count active patients")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	avg, err := queries.AvgGlucoseAcrossPatients(ctx, doctorID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to average glucose")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	critical, err := queries.ListCriticalReadings(ctx, database.ListCriticalReadingsParams{
		DoctorID: doctorID,
		High:     criticalHighThreshold,
		Low:      criticalLowThreshold,
		Limit:    criticalReadingsLimit,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list critical readings")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	if critical == nil {
		critical = []database.CriticalReadingRow{}
	}

	var avgGlucose interface{}
	if avg.Valid {
		avgGlucose = math.Round(avg.Float64*10) / 10
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"total_patients":    total,
		"active_patients":   active,
		"avg_glucose_7d":    avgGlucose,
		"critical_readings": critical,
	})
}

// AlertsWebsocketHandler handles GET /doctor/alerts/ws. The connection
// stays open and receives critical glucose alerts for the doctor's
// patients as they are recorded.
func AlertsWebsocketHandler(c echo.Context) error {
	doctorID, err := utility.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	conn, err := utility.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("Websocket upgrade failed")
		return err
	}

	utility.RegisterAlertClient(doctorID, conn)
	log.Info().Str("doctor_id", doctorID).Msg("Doctor connected to alerts websocket")

	defer func() {
		utility.UnregisterAlertClient(doctorID)
		conn.Close()
		log.Info().Str("doctor_id", doctorID).Msg("Doctor disconnected from alerts websocket")
	}()

	// Drain incoming frames until the client goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}
