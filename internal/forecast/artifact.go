package forecast

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/ml"
)

// ModelArtifact is the JSON form of a trained model bundle. Encoders and
// forest travel together so a reload can never pair the model with stale
// category codes.
type ModelArtifact struct {
	BloodTypeEncoder *ml.LabelEncoder          `json:"blood_type_encoder"`
	RegionEncoder    *ml.LabelEncoder          `json:"region_encoder"`
	SeasonEncoder    *ml.LabelEncoder          `json:"season_encoder"`
	Model            *ml.RandomForestRegressor `json:"model"`
	Trained          bool                      `json:"is_trained"`
	TrainedAt        time.Time                 `json:"trained_at"`
	TrainingRows     int                       `json:"training_rows"`
}

func encodeArtifact(b *modelBundle, trainedAt time.Time, rows int) ([]byte, error) {
	return json.Marshal(ModelArtifact{
		BloodTypeEncoder: b.bloodTypes,
		RegionEncoder:    b.regions,
		SeasonEncoder:    b.seasons,
		Model:            b.model,
		Trained:          true,
		TrainedAt:        trainedAt,
		TrainingRows:     rows,
	})
}

func decodeArtifact(data []byte) (*modelBundle, *ModelArtifact, error) {
	var art ModelArtifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, nil, fmt.Errorf("failed to decode model artifact: %w", err)
	}
	if !art.Trained || art.Model == nil || !art.Model.Trained() {
		return nil, nil, fmt.Errorf("model artifact holds no trained model")
	}
	if art.BloodTypeEncoder == nil || art.RegionEncoder == nil || art.SeasonEncoder == nil {
		return nil, nil, fmt.Errorf("model artifact is missing encoders")
	}

	bundle := &modelBundle{
		bloodTypes: art.BloodTypeEncoder,
		regions:    art.RegionEncoder,
		seasons:    art.SeasonEncoder,
		model:      art.Model,
	}

	return bundle, &art, nil
}
