package gemini

import (
	"FaceDetect/pkg/facepipeline"
	"FaceDetect/pkg/imagecodec"
	"context"
	"errors"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	jsoniter "github.com/json-iterator/go"
	"google.golang.org/api/option"
)

const facePrompt = `
Locate every human face in this image.
Respond with a JSON array only, one object per face:
[{"xmin": 0.1, "ymin": 0.2, "width": 0.3, "height": 0.4, "score": 0.95}]
Coordinates are fractions of the image width and height, measured from the top-left corner.
"score" is your confidence between 0 and 1. Respond with [] when there are no faces.
`

type IGemini interface {
	facepipeline.Detector
	Close()
}

type geminiClient struct {
	modelName     string
	minConfidence float64
	client        *genai.Client
}

type geminiFace struct {
	XMin   float64 `json:"xmin"`
	YMin   float64 `json:"ymin"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Score  float64 `json:"score"`
}

func NewGeminiClient(minConfidence float64) (IGemini, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	modelName := os.Getenv("GEMINI_MODEL_NAME")
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &geminiClient{
		modelName:     modelName,
		minConfidence: minConfidence,
		client:        client,
	}, nil
}

func (g *geminiClient) Detect(ctx context.Context, img *imagecodec.PixelImage) ([]facepipeline.RelativeDetection, error) {
	frame, err := imagecodec.EncodeJPEG(img)
	if err != nil {
		return nil, err
	}

	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"

	res, err := model.GenerateContent(ctx, genai.Text(facePrompt), genai.ImageData("jpeg", frame))
	if err != nil {
		return nil, err
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("no response from Gemini API")
	}

	text, ok := res.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, errors.New("unexpected response format from Gemini API")
	}

	return parseFaceResponse(string(text), g.minConfidence)
}

func (g *geminiClient) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

func parseFaceResponse(response string, minConfidence float64) ([]facepipeline.RelativeDetection, error) {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")

	if start == -1 || end == -1 || end <= start {
		return nil, errors.New("cannot find valid JSON array in response")
	}

	var faces []geminiFace
	if err := jsoniter.Unmarshal([]byte(response[start:end+1]), &faces); err != nil {
		return nil, err
	}

	detections := make([]facepipeline.RelativeDetection, 0, len(faces))
	for _, f := range faces {
		if f.Score < minConfidence {
			continue
		}
		detections = append(detections, facepipeline.RelativeDetection{
			Box: facepipeline.RelativeBoundingBox{
				XMin:   f.XMin,
				YMin:   f.YMin,
				Width:  f.Width,
				Height: f.Height,
			},
			Score: f.Score,
		})
	}

	return detections, nil
}
