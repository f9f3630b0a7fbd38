package server

import (
	"fmt"
	"image/color"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/docscan-mcp/internal/raster"
)

// WarmUp runs the pipeline once over a small synthetic page and then
// signals the engine, moving the controller out of AwaitingEngine. On error
// the engine stays unsignalled.
func (s *Server) WarmUp() error {
	start := time.Now()

	page, err := raster.New(96, 64, 4)
	if err != nil {
		return err
	}
	page.Fill(color.NRGBA{40, 40, 40, 255})
	white := raster.Pixel(color.NRGBA{240, 240, 240, 255}, 4)
	for y := 12; y < 52; y++ {
		for x := 16; x < 80; x++ {
			o := page.Offset(x, y)
			copy(page.Samples[o:o+4], white)
		}
	}

	if _, _, err := s.pipeline.Run(page); err != nil {
		return fmt.Errorf("engine warm-up failed: %w", err)
	}
	s.engine.Signal()

	s.log.WithFields(logrus.Fields{
		"elapsed": time.Since(start),
	}).Info("Engine ready")
	// Promote the controller and notify the client.
	s.controller.Status()
	return nil
}
