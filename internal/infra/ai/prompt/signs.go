package prompt

import (
	"fmt"

	"github.com/bryanwahyu/traffic-sign-indicator/internal/domain/ai"
)

// DescribeSign asks for a literal identification of the primary sign only.
const DescribeSign = "Describe the main traffic sign in this image precisely " +
	"(e.g., 'No Right Turn', 'Stop', or 'Speed Limit 60'). " +
	"Include shape, color, and symbols. Ignore the background."

// Short and near-deterministic for the description, longer and freer for the precaution.
var (
	DescribeConfig   = ai.InferenceConfig{MaxTokens: 50, Temperature: 0.3}
	PrecautionConfig = ai.InferenceConfig{MaxTokens: 100, Temperature: 0.7}
)

// Precaution builds the driving-assistant prompt. description and drivingContext
// are embedded verbatim.
func Precaution(description, drivingContext string) string {
	return fmt.Sprintf(
		"You are a driving assistant. The detected traffic sign is '%s'. "+
			"Given the driving context '%s', provide one concise precaution or safety warning.",
		description, drivingContext,
	)
}

// DescribeRequest builds the image + instruction request.
func DescribeRequest(modelID, format string, image []byte) ai.Request {
	return ai.Request{
		ModelID: modelID,
		Messages: []ai.Message{
			ai.UserMessage(
				ai.TextBlock(DescribeSign),
				ai.ContentBlock{Image: &ai.ImageBlock{Format: format, Bytes: image}},
			),
		},
		Config: DescribeConfig,
	}
}

// PrecautionRequest builds the text-only precaution request.
func PrecautionRequest(modelID, description, drivingContext string) ai.Request {
	return ai.Request{
		ModelID:  modelID,
		Messages: []ai.Message{ai.UserMessage(ai.TextBlock(Precaution(description, drivingContext)))},
		Config:   PrecautionConfig,
	}
}
