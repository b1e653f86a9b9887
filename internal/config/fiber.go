package config

import (
	"FaceDetect/pkg/imagecodec"
	"os"
	"strconv"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

const defaultMaxUploadSizeMB = 10

func NewFiber(logger *logrus.Logger) *fiber.App {
	app := fiber.New(
		fiber.Config{
			AppName:           "Face Detection API",
			BodyLimit:         bodyLimit(logger),
			DisableKeepalive:  false,
			StrictRouting:     true,
			CaseSensitive:     true,
			EnablePrintRoutes: os.Getenv("APP_ENV") != "test",
			JSONEncoder:       jsoniter.Marshal,
			JSONDecoder:       jsoniter.Unmarshal,
		})

	return app
}

// MaxUploadSize is the per-image limit in bytes from MAX_UPLOAD_SIZE_MB.
func MaxUploadSize() int64 {
	mb, err := strconv.Atoi(os.Getenv("MAX_UPLOAD_SIZE_MB"))
	if err != nil || mb <= 0 {
		mb = defaultMaxUploadSizeMB
	}
	return int64(mb) << 20
}

// MaxImagePixels is the decoded size limit from MAX_IMAGE_PIXELS.
func MaxImagePixels() int64 {
	pixels, err := strconv.ParseInt(os.Getenv("MAX_IMAGE_PIXELS"), 10, 64)
	if err != nil || pixels <= 0 {
		return imagecodec.DefaultMaxPixels
	}
	return pixels
}

// A base64 body is about 4/3 of the image plus multipart or JSON framing.
func bodyLimit(logger *logrus.Logger) int {
	limit := int(MaxUploadSize()*4/3) + 1<<20
	logger.Debugf("Request body limit set to %d bytes", limit)
	return limit
}
