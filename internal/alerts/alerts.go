package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
	"github.com/aryankhare2110/NSS-Bloodlink/pkg/logger"
)

const (
	shortageAlertType = "blood_shortage_prediction"
	callToAction      = "Please schedule a donation appointment if you are available."

	// At most this many volunteers are notified per alert
	maxNotifiedVolunteers = 10
)

// Alert is the notification payload built for one shortage forecast.
// Delivery channels (push, SMS, broadcast) hang off this payload; the
// engine itself only builds it.
type Alert struct {
	AlertType          string           `json:"alert_type"`
	BloodType          string           `json:"blood_type"`
	Region             string           `json:"region"`
	PredictedDemand    float64          `json:"predicted_demand"`
	ShortageRisk       domain.RiskLevel `json:"shortage_risk"`
	ForecastDate       time.Time        `json:"forecast_date"`
	Message            string           `json:"message"`
	NotifiedVolunteers int              `json:"notified_volunteers"`
	CallToAction       string           `json:"call_to_action"`
}

// ForecastSource is the slice of the forecast repository alerting needs.
type ForecastSource interface {
	PendingAlerts(ctx context.Context, minRisk domain.RiskLevel, now time.Time) ([]domain.Forecast, error)
	GetByID(ctx context.Context, id int64) (*domain.Forecast, error)
	MarkAlertSent(ctx context.Context, ids []int64) error
}

// VolunteerCounter is the slice of the volunteer pool alerting needs.
type VolunteerCounter interface {
	CountAvailable(ctx context.Context, bloodType string, limit int) (int, error)
}

// Notifier builds shortage alerts from persisted forecasts and marks
// them sent so the same forecast is never alerted twice by the batch
// path.
type Notifier struct {
	forecasts  ForecastSource
	volunteers VolunteerCounter
}

func NewNotifier(forecasts ForecastSource, volunteers VolunteerCounter) *Notifier {
	return &Notifier{
		forecasts:  forecasts,
		volunteers: volunteers,
	}
}

// SendPending alerts on every un-alerted forecast at or above minRisk
// whose forecast date is still ahead.
func (n *Notifier) SendPending(ctx context.Context, minRisk domain.RiskLevel) ([]Alert, error) {
	forecasts, err := n.forecasts.PendingAlerts(ctx, minRisk, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to load pending forecasts: %w", err)
	}

	return n.send(ctx, forecasts)
}

// SendByID alerts on one specific forecast, regardless of its alert
// state or date. Returns domain.ErrForecastNotFound for an unknown id.
func (n *Notifier) SendByID(ctx context.Context, id int64) ([]Alert, error) {
	forecast, err := n.forecasts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return n.send(ctx, []domain.Forecast{*forecast})
}

func (n *Notifier) send(ctx context.Context, forecasts []domain.Forecast) ([]Alert, error) {
	alerts := make([]Alert, 0, len(forecasts))
	ids := make([]int64, 0, len(forecasts))
	for _, forecast := range forecasts {
		alerts = append(alerts, n.build(ctx, forecast))
		ids = append(ids, forecast.ID)
	}

	if err := n.forecasts.MarkAlertSent(ctx, ids); err != nil {
		return nil, fmt.Errorf("failed to mark alerts sent: %w", err)
	}

	if len(alerts) > 0 {
		logger.Log.Info().Int("count", len(alerts)).Msg("Shortage alerts built")
	}

	return alerts, nil
}

func (n *Notifier) build(ctx context.Context, forecast domain.Forecast) Alert {
	notified := 0
	if n.volunteers != nil {
		count, err := n.volunteers.CountAvailable(ctx, forecast.BloodType, maxNotifiedVolunteers)
		if err != nil {
			logger.Log.Warn().Err(err).Str("blood_type", forecast.BloodType).
				Msg("Volunteer pool lookup failed, reporting zero volunteers")
		} else {
			notified = count
		}
	}

	return Alert{
		AlertType:          shortageAlertType,
		BloodType:          forecast.BloodType,
		Region:             forecast.Region,
		PredictedDemand:    forecast.PredictedDemand,
		ShortageRisk:       forecast.ShortageRisk,
		ForecastDate:       forecast.ForecastDate,
		Message:            shortageMessage(forecast),
		NotifiedVolunteers: notified,
		CallToAction:       callToAction,
	}
}

func shortageMessage(forecast domain.Forecast) string {
	return fmt.Sprintf("⚠️ %s risk of %s shortage in %s predicted for %s. Expected demand: %d units.",
		forecast.ShortageRisk, forecast.BloodType, forecast.Region,
		forecast.ForecastDate.Format("2006-01-02 15:04"), int(forecast.PredictedDemand))
}
