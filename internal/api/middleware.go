package api

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// ZstdMiddleware decompresses zstd request bodies and compresses responses
// for clients that accept zstd.
func ZstdMiddleware(whitelistedRoutes []string) fiber.Handler {
	if whitelistedRoutes == nil {
		whitelistedRoutes = []string{HealthPath}
		log.Debug().
			Any("default", whitelistedRoutes).
			Msg("Whitelisted routes not specified, using default whitelist")
	}

	return func(c *fiber.Ctx) error {
		path := c.Path()

		for _, route := range whitelistedRoutes {
			if path == route {
				return c.Next()
			}
		}

		contentEncoding := c.Get(fiber.HeaderContentEncoding)
		if strings.EqualFold(contentEncoding, "zstd") {
			body := c.Request().Body()
			if len(body) > 0 {
				decoder, err := zstd.NewReader(bytes.NewReader(body))
				if err != nil {
					log.Err(err).Msg("Failed to create zstd decoder")
					return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("failed to decompress zstd data: %s", err))
				}
				defer decoder.Close()

				decompressed, err := io.ReadAll(decoder)
				if err != nil {
					log.Err(err).Msg("Failed to decompress request")
					return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("failed to decompress zstd data: %s", err))
				}

				c.Request().SetBody(decompressed)
				c.Request().Header.Del(fiber.HeaderContentEncoding)
				log.Debug().
					Int("compressed_size", len(body)).
					Int("decompressed_size", len(decompressed)).
					Msg("Request body decompressed")
			}
		}

		if err := c.Next(); err != nil {
			return err
		}

		acceptEncoding := c.Get(fiber.HeaderAcceptEncoding)
		if !strings.Contains(strings.ToLower(acceptEncoding), "zstd") ||
			len(c.Response().Header.Peek(fiber.HeaderContentEncoding)) > 0 {
			return nil
		}

		responseBody := c.Response().Body()
		if len(responseBody) == 0 {
			return nil
		}
		encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			log.Err(err).Msg("Failed to create zstd encoder")
			return nil // Continue without compression
		}
		defer encoder.Close()

		compressed := encoder.EncodeAll(responseBody, nil)
		c.Response().SetBody(compressed)
		c.Set(fiber.HeaderContentEncoding, "zstd")

		log.Debug().
			Int("original_size", len(responseBody)).
			Int("compressed_size", len(compressed)).
			Msg("Response body compressed")
		return nil
	}
}
