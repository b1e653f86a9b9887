package faceHandler

import (
	"FaceDetect/internal/api/face"
	"FaceDetect/internal/entity"
	"FaceDetect/internal/middleware"
	"FaceDetect/pkg/facepipeline"
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	gorillaws "github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"
)

type fakeFaceService struct {
	uploadName string
	base64     string
	err        error
	records    []entity.FaceDetectionRecord
	limit      int
}

var sampleFaces = []facepipeline.Detection{{
	Box:        facepipeline.BoundingBox{X: 100, Y: 75, Width: 200, Height: 150},
	Confidence: 0.9,
}}

func (f *fakeFaceService) DetectFromUpload(ctx context.Context, file *multipart.FileHeader) (*face.DetectFacesResponse, error) {
	f.uploadName = file.Filename
	if f.err != nil {
		return nil, f.err
	}
	annotated := "data:image/jpeg;base64,AAAA"
	return &face.DetectFacesResponse{
		Success:          true,
		FacesDetected:    1,
		Faces:            sampleFaces,
		AnnotatedImage:   &annotated,
		OriginalFilename: file.Filename,
		SavedFilename:    "uploads/20240101_000000_" + file.Filename,
	}, nil
}

func (f *fakeFaceService) DetectFromBase64(ctx context.Context, image string) (*face.DetectFacesResponse, error) {
	f.base64 = image
	if f.err != nil {
		return nil, f.err
	}
	return &face.DetectFacesResponse{Success: true, FacesDetected: 1, Faces: sampleFaces}, nil
}

func (f *fakeFaceService) DetectFrame(ctx context.Context, frame []byte) (*face.FrameResponse, error) {
	if string(frame) == "bad" {
		return nil, face.ErrInvalidImage
	}
	return &face.FrameResponse{FacesDetected: 1, Faces: sampleFaces, Width: 400, Height: 300}, nil
}

func (f *fakeFaceService) GetDetectionByID(ctx context.Context, id string) (entity.FaceDetectionRecord, error) {
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	if f.err != nil {
		return entity.FaceDetectionRecord{}, f.err
	}
	return entity.FaceDetectionRecord{}, face.ErrDetectionNotFound
}

func (f *fakeFaceService) ListDetections(ctx context.Context, limit int) ([]entity.FaceDetectionRecord, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakeFaceService) DeleteDetection(ctx context.Context, id string) error {
	for i, r := range f.records {
		if r.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return face.ErrDetectionNotFound
}

func (f *fakeFaceService) HistoryEnabled() bool { return f.err == nil }

func newTestApp(svc *fakeFaceService) *fiber.App {
	log := logrus.New()
	log.SetOutput(io.Discard)

	mw := middleware.New(log, middleware.Config{RateLimit: 1000, RateBurst: 1000})
	app := fiber.New()
	app.Use(mw.NewRequestIDMiddleware())
	New(log, validator.New(), mw, svc).Start(app)
	return app
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, jsoniter.NewDecoder(resp.Body).Decode(&body))
	return body
}

func multipartRequest(t *testing.T, filename, contentType string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/detect-faces", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestDetectFacesUpload(t *testing.T) {
	svc := &fakeFaceService{}
	app := newTestApp(svc)

	resp, err := app.Test(multipartRequest(t, "team.png", "image/png", []byte("png")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["faces_detected"])
	assert.Equal(t, "team.png", body["original_filename"])
	assert.Equal(t, "team.png", svc.uploadName)

	faces := body["faces"].([]interface{})
	require.Len(t, faces, 1)
	assert.Equal(t, []interface{}{float64(100), float64(75), float64(200), float64(150)}, faces[0].(map[string]interface{})["bbox"])
}

func TestDetectFacesUploadMissingFile(t *testing.T) {
	app := newTestApp(&fakeFaceService{})

	req := httptest.NewRequest(http.MethodPost, "/detect-faces", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDetectFacesUploadErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not an image", face.ErrFileNotImage, http.StatusBadRequest, "INVALID_FILE_TYPE"},
		{"undecodable", face.ErrInvalidImage, http.StatusBadRequest, "INVALID_IMAGE"},
		{"too large", face.ErrFileTooLarge, http.StatusRequestEntityTooLarge, ""},
		{"storage", face.ErrStoreUpload, http.StatusInternalServerError, ""},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(&fakeFaceService{err: tc.err})

			resp, err := app.Test(multipartRequest(t, "a.png", "image/png", []byte("x")))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			body := decodeBody(t, resp)
			assert.NotEmpty(t, body["error"])
			if tc.code != "" {
				assert.Equal(t, tc.code, body["code"])
			}
			if tc.status >= http.StatusInternalServerError {
				assert.NotEmpty(t, body["trace_id"])
			}
		})
	}
}

func TestDetectFacesBase64(t *testing.T) {
	svc := &fakeFaceService{}
	app := newTestApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/detect-faces-base64", strings.NewReader(`{"image":"data:image/png;base64,AAAA"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "data:image/png;base64,AAAA", svc.base64)

	body := decodeBody(t, resp)
	assert.Contains(t, body, "annotated_image")
	assert.Nil(t, body["annotated_image"])
}

func TestDetectFacesBase64Validation(t *testing.T) {
	app := newTestApp(&fakeFaceService{})

	req := httptest.NewRequest(http.MethodPost, "/detect-faces-base64", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", decodeBody(t, resp)["code"])
}

func TestDetectFacesBase64InvalidPayload(t *testing.T) {
	app := newTestApp(&fakeFaceService{err: face.ErrInvalidBase64})

	req := httptest.NewRequest(http.MethodPost, "/detect-faces-base64", strings.NewReader(`{"image":"!!"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BASE64", decodeBody(t, resp)["code"])
}

func TestListDetections(t *testing.T) {
	svc := &fakeFaceService{records: []entity.FaceDetectionRecord{{
		ID:            "01HZX",
		Source:        entity.DetectionSourceUpload,
		FacesDetected: 1,
		Faces:         sampleFaces,
		CreatedAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}}}
	app := newTestApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/detections?limit=5", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, svc.limit)

	detections := decodeBody(t, resp)["detections"].([]interface{})
	require.Len(t, detections, 1)
	assert.Equal(t, "upload", detections[0].(map[string]interface{})["source"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/detections?limit=500", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHistoryRoutesWithoutDatabase(t *testing.T) {
	app := newTestApp(&fakeFaceService{err: face.ErrHistoryDisabled})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/detections", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestGetDetectionNotFound(t *testing.T) {
	app := newTestApp(&fakeFaceService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/detections/missing", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "DETECTION_NOT_FOUND", decodeBody(t, resp)["code"])
}

func TestDeleteDetection(t *testing.T) {
	svc := &fakeFaceService{records: []entity.FaceDetectionRecord{{ID: "01HZX", SavedURL: "https://signed.example/a.png"}}}
	app := newTestApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/detections/01HZX", nil))
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/a.png", decodeBody(t, resp)["saved_url"])

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/detections/01HZX", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, svc.records)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/detections/01HZX", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFaceStreamRequiresUpgrade(t *testing.T) {
	app := newTestApp(&fakeFaceService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/face/ws", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestFaceStream(t *testing.T) {
	app := newTestApp(&fakeFaceService{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	defer func() { _ = app.Shutdown() }()

	conn, _, err := gorillaws.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/face/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(gorillaws.BinaryMessage, []byte("bad")))
	var errReply map[string]interface{}
	require.NoError(t, conn.ReadJSON(&errReply))
	assert.NotEmpty(t, errReply["error"])

	require.NoError(t, conn.WriteMessage(gorillaws.BinaryMessage, []byte("frame")))
	var reply map[string]interface{}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, float64(1), reply["faces_detected"])
	assert.Equal(t, float64(400), reply["width"])
	assert.NotContains(t, reply, "annotated_image")
}
