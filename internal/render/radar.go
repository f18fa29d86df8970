package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"

	"github.com/fogleman/gg"

	"insta-persona/internal/domain"
)

const (
	canvasSize = 600
	radius     = 220.0
)

// RadarRenderer dibuja el gráfico radial de los cinco rasgos y lo entrega
// como data URI PNG en base64.
type RadarRenderer struct{}

func NewRadarRenderer() *RadarRenderer {
	return &RadarRenderer{}
}

// Render dibuja los ejes en el orden fijo de rasgos, anillos cada 20% en el
// rango [0,1] y el polígono cerrado repitiendo el primer vertice.
func (r *RadarRenderer) Render(scores domain.TraitScores) (string, error) {
	dc := gg.NewContext(canvasSize, canvasSize)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	center := float64(canvasSize) / 2
	axes := len(domain.TraitNames)

	// Anillos de la grilla cada 20%.
	dc.SetRGBA(0.6, 0.6, 0.6, 0.8)
	dc.SetLineWidth(1)
	for ring := 1; ring <= 5; ring++ {
		fraction := float64(ring) / 5
		for i := 0; i <= axes; i++ {
			x, y := vertex(center, fraction, i, axes)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.Stroke()
	}

	// Ejes y etiquetas.
	for i, trait := range domain.TraitNames {
		x, y := vertex(center, 1.0, i, axes)
		dc.SetRGBA(0.6, 0.6, 0.6, 0.8)
		dc.DrawLine(center, center, x, y)
		dc.Stroke()

		lx, ly := vertex(center, 1.14, i, axes)
		dc.SetRGB(0.1, 0.1, 0.1)
		dc.DrawStringAnchored(trait, lx, ly, 0.5, 0.5)
	}

	// Etiquetas de porcentaje sobre el eje vertical.
	dc.SetRGB(0.35, 0.35, 0.35)
	for ring := 1; ring <= 5; ring++ {
		fraction := float64(ring) / 5
		label := fmt.Sprintf("%d%%", ring*20)
		dc.DrawStringAnchored(label, center+10, center-fraction*radius, 0, 0.5)
	}

	// Poligono de scores, cerrado repitiendo el primer punto.
	for i := 0; i <= axes; i++ {
		trait := domain.TraitNames[i%axes]
		value := clamp(scores[trait])
		x, y := vertex(center, value, i, axes)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.SetRGBA(0.30, 0.69, 0.31, 0.25)
	dc.FillPreserve()
	dc.SetRGBA(0.30, 0.69, 0.31, 1.0)
	dc.SetLineWidth(2)
	dc.Stroke()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return "", fmt.Errorf("encode radar png: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// vertex ubica el punto del eje i a una fraccion del radio, arrancando
// desde arriba y girando en sentido horario.
func vertex(center, fraction float64, i, axes int) (float64, float64) {
	angle := -math.Pi/2 + 2*math.Pi*float64(i)/float64(axes)
	return center + fraction*radius*math.Cos(angle), center + fraction*radius*math.Sin(angle)
}

func clamp(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
