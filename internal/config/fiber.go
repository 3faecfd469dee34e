package config

import (
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// multipartOverhead leaves room for the form envelope around the largest
// accepted upload.
const multipartOverhead = 1024 * 1024

func NewFiber(logger *logrus.Logger, cfg *Config) *fiber.App {
	app := fiber.New(
		fiber.Config{
			AppName:           "Detection Viewer",
			BodyLimit:         int(cfg.UploadMaxBytes) + multipartOverhead,
			DisableKeepalive:  false,
			StrictRouting:     true,
			CaseSensitive:     true,
			EnablePrintRoutes: cfg.AppEnv == "development",
			JSONEncoder:       jsoniter.Marshal,
			JSONDecoder:       jsoniter.Unmarshal,
		})

	return app
}
