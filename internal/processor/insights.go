package processor

import (
	"fmt"
	"strconv"
	"strings"

	"pngkit/pkg/png"
)

func buildInsights(report *ScanReport) []ScanInsight {
	var insights []ScanInsight

	switch report.Verdict {
	case VerdictCorrupt:
		insights = append(insights, ScanInsight{Kind: "Integrity", Message: "File is damaged and cannot be normalized: " + report.Problem})
	case VerdictUnsupported:
		insights = append(insights, ScanInsight{Kind: "Integrity", Message: "Valid PNG, but uses a feature pngkit does not decode: " + report.Problem})
	}

	if h := report.Header; h != nil && report.Verdict == VerdictOK {
		if h.ColorType != png.RGBA || h.BitDepth != 8 {
			insights = append(insights, ScanInsight{
				Kind:    "Format",
				Message: fmt.Sprintf("Normalizing expands %d-bit %s to 8-bit rgba.", h.BitDepth, h.ColorType),
			})
		}
		if h.BitDepth == 16 {
			insights = append(insights, ScanInsight{Kind: "Format", Message: "16-bit samples keep only their high byte when normalized."})
		}
	}

	if n := countChunks(report.Chunks, "IDAT"); n > 1 {
		insights = append(insights, ScanInsight{Kind: "Structure", Message: fmt.Sprintf("Image data is split across %d IDAT chunks.", n)})
	}
	if n := ancillaryChunks(report.Chunks); n > 0 {
		insights = append(insights, ScanInsight{Kind: "Metadata", Message: fmt.Sprintf("%d ancillary chunk(s) are dropped by normalize.", n)})
	}

	values := flattenDetails(report.Details)
	if gps := buildGPSInsight(values); gps != nil {
		insights = append(insights, *gps)
	}
	if device := buildDeviceInsight(values); device != nil {
		insights = append(insights, *device)
	}
	if ts := buildTimestampInsight(values); ts != nil {
		insights = append(insights, *ts)
	}
	if report.Exif != nil && report.Exif.SerialCount > 0 {
		insights = append(insights, ScanInsight{Kind: "Identifier", Message: "Unique device identifiers (serial numbers) are present."})
	}

	return insights
}

func countChunks(chunks []ChunkInfo, typ string) int {
	n := 0
	for _, c := range chunks {
		if c.Type == typ {
			n++
		}
	}
	return n
}

// ancillaryChunks counts chunks the encoder does not write back.
func ancillaryChunks(chunks []ChunkInfo) int {
	n := 0
	for _, c := range chunks {
		if !c.Critical && c.Type != "tRNS" {
			n++
		}
	}
	return n
}

func flattenDetails(details []ScanDetail) map[string][]string {
	values := make(map[string][]string)
	for _, detail := range details {
		for _, entry := range detail.Values {
			key, value, ok := strings.Cut(entry, "=")
			key = strings.TrimSpace(key)
			if !ok || key == "" {
				continue
			}
			values[key] = append(values[key], strings.TrimSpace(value))
		}
	}
	return values
}

func buildGPSInsight(values map[string][]string) *ScanInsight {
	lat, okLat := parseGPSCoordinate(firstValue(values, "GPSLatitude"))
	lon, okLon := parseGPSCoordinate(firstValue(values, "GPSLongitude"))
	if !okLat || !okLon {
		return nil
	}
	if firstValue(values, "GPSLatitudeRef") == "S" {
		lat = -lat
	}
	if firstValue(values, "GPSLongitudeRef") == "W" {
		lon = -lon
	}
	return &ScanInsight{Kind: "Location", Message: fmt.Sprintf("Approx location: %.5f, %.5f", lat, lon)}
}

func buildDeviceInsight(values map[string][]string) *ScanInsight {
	device := strings.TrimSpace(firstValue(values, "Make") + " " + firstValue(values, "Model"))
	if device == "" {
		device = firstValue(values, "CameraModelName")
	}
	if device == "" {
		// PNG writers commonly name themselves in a Software text chunk.
		if sw := firstValue(values, "Software"); sw != "" {
			return &ScanInsight{Kind: "Device", Message: "Written by: " + sw}
		}
		return nil
	}
	return &ScanInsight{Kind: "Device", Message: "Device: " + device}
}

func buildTimestampInsight(values map[string][]string) *ScanInsight {
	for _, key := range []string{"DateTimeOriginal", "DateTimeDigitized", "DateTime"} {
		if ts := firstValue(values, key); ts != "" {
			// EXIF dates use colons throughout: 2024:01:02 03:04:05.
			formatted := strings.Replace(ts, ":", "-", 2)
			return &ScanInsight{Kind: "Timeline", Message: fmt.Sprintf("Captured: %s (timezone unknown)", formatted)}
		}
	}
	if ts := firstValue(values, "ModTime"); ts != "" {
		return &ScanInsight{Kind: "Timeline", Message: fmt.Sprintf("Last modified: %s UTC", ts)}
	}
	if ts := firstValue(values, "Creation Time"); ts != "" {
		return &ScanInsight{Kind: "Timeline", Message: "Created: " + ts}
	}
	return nil
}

func firstValue(values map[string][]string, key string) string {
	if list, ok := values[key]; ok && len(list) > 0 {
		return list[0]
	}
	return ""
}

// parseGPSCoordinate reads "[d/1 m/1 s/100]" style EXIF rationals, or a plain
// decimal, into degrees.
func parseGPSCoordinate(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	parts := strings.Fields(raw)
	if len(parts) == 0 {
		return 0, false
	}

	degrees := 0.0
	scale := 1.0
	for i, part := range parts {
		if i == 3 {
			break
		}
		value, ok := parseRational(part)
		if !ok {
			return 0, false
		}
		degrees += value / scale
		scale *= 60
	}
	return degrees, true
}

func parseRational(part string) (float64, bool) {
	part = strings.TrimSpace(part)
	num, den, isFraction := strings.Cut(part, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	if !isFraction {
		return n, true
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}
