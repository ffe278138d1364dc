// Package badge renders attendee badges as PNG images.
package badge

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/geocoder89/regportal/internal/domain/registration"
	"github.com/skip2/go-qrcode"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	Width  = 600
	Height = 900

	qrSize   = 360
	margin   = 20
	maxTextW = Width - 2*margin
)

var ErrNotRenderable = errors.New("registration cannot be rendered as a badge")

var (
	navy   = color.RGBA{R: 0x1b, G: 0x2a, B: 0x4a, A: 0xff}
	ink    = color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}
	muted  = color.RGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xff}
	pillBg = color.RGBA{R: 0xe8, G: 0xee, B: 0xf7, A: 0xff}
	paidBg = color.RGBA{R: 0x1e, G: 0x8e, B: 0x3e, A: 0xff}
	dueBg  = color.RGBA{R: 0xd9, G: 0x7a, B: 0x00, A: 0xff}
)

// QRContent is what the badge QR code encodes.
func QRContent(reg registration.Registration) string {
	return fmt.Sprintf("REG:%s|EVT:%s|NAME:%s", reg.RegNum, reg.EventID(), reg.FullName)
}

// Render draws the fixed badge layout for reg.
func Render(reg registration.Registration) (image.Image, error) {
	if reg.RegNum == "" {
		return nil, fmt.Errorf("%w: missing registration number", ErrNotRenderable)
	}

	qr, err := qrcode.New(QRContent(reg), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	qr.DisableBorder = true

	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	fill(img, img.Bounds(), color.White)

	// header band: event name and dates
	fill(img, image.Rect(0, 0, Width, 150), navy)
	eventName, dates := eventLines(reg)
	drawText(img, eventName, 30, 3, color.White)
	if dates != "" {
		drawText(img, dates, 100, 2, color.White)
	}

	name := strings.TrimSpace(strings.TrimSpace(reg.Prefix) + " " + reg.FullName)
	drawText(img, name, 180, 4, ink)
	if reg.Affiliation != "" {
		drawText(img, reg.Affiliation, 245, 2, muted)
	}

	if reg.Category.Name != "" {
		fill(img, image.Rect(140, 285, Width-140, 325), pillBg)
		drawText(img, strings.ToUpper(reg.Category.Name), 292, 2, navy)
	}

	qrTop := 345
	qrRect := image.Rect((Width-qrSize)/2, qrTop, (Width+qrSize)/2, qrTop+qrSize)
	draw.Draw(img, qrRect, qr.Image(qrSize), image.Point{}, draw.Src)

	drawText(img, reg.RegNum, qrTop+qrSize+25, 4, ink)

	band, label := dueBg, "PAYMENT PENDING"
	if reg.IsPaid {
		band, label = paidBg, "PAID"
	}
	fill(img, image.Rect(0, Height-80, Width, Height), band)
	drawText(img, label, Height-60, 3, color.White)

	return img, nil
}

func eventLines(reg registration.Registration) (string, string) {
	ev := reg.Event.Event
	if ev == nil {
		return "EVENT " + reg.EventID(), ""
	}

	var dates string
	switch {
	case ev.StartDate.IsZero():
	case ev.EndDate.IsZero() || sameDay(ev.StartDate, ev.EndDate):
		dates = ev.StartDate.Format("02 Jan 2006")
	default:
		dates = ev.StartDate.Format("02 Jan") + " - " + ev.EndDate.Format("02 Jan 2006")
	}
	if ev.Venue != "" && dates != "" {
		dates += " | " + ev.Venue
	}
	return ev.Name, dates
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func fill(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// drawText renders s horizontally centred at top, scaling the bitmap font up
// by scale and shrinking it when the line would not fit.
func drawText(dst draw.Image, s string, top, scale int, c color.Color) {
	if s == "" {
		return
	}

	face := basicfont.Face7x13
	d := &font.Drawer{Face: face}

	w := d.MeasureString(s).Ceil()
	for scale > 1 && w*scale > maxTextW {
		scale--
	}
	for w > maxTextW && utf8.RuneCountInString(s) > 4 {
		r := []rune(s)
		s = string(r[:len(r)-4]) + "..."
		w = d.MeasureString(s).Ceil()
	}

	h := face.Height
	line := image.NewRGBA(image.Rect(0, 0, w, h))
	d.Dst = line
	d.Src = image.NewUniform(c)
	d.Dot = fixed.P(0, face.Ascent)
	d.DrawString(s)

	x := (Width - w*scale) / 2
	target := image.Rect(x, top, x+w*scale, top+h*scale)
	xdraw.NearestNeighbor.Scale(dst, target, line, line.Bounds(), xdraw.Over, nil)
}
