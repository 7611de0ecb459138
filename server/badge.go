package server

import (
	"fmt"
	"html"
	"math"
	"strconv"

	"shipscore/models"
)

const (
	badgeLabel  = "ShipScore"
	badgeHeight = 20
)

// badgeColor maps a grade to the right-hand fill. Unknown apps get the
// neutral brand colour.
func badgeColor(entry *models.GalleryEntry) string {
	if entry == nil {
		return "#6366f1"
	}
	switch entry.Grade {
	case "A+", "A":
		return "#22c55e"
	case "B":
		return "#3b82f6"
	case "C":
		return "#eab308"
	default:
		return "#ef4444"
	}
}

// renderBadge draws the two-part score badge. A nil entry renders "?/100 (?)".
func renderBadge(entry *models.GalleryEntry) string {
	score, grade := "?", "?"
	if entry != nil {
		score = strconv.Itoa(entry.OverallScore)
		grade = entry.Grade
	}
	right := fmt.Sprintf("%s/100 (%s)", score, grade)
	fill := badgeColor(entry)

	leftWidth := textWidth(badgeLabel)
	rightWidth := textWidth(right)
	total := int(math.Round(leftWidth + rightWidth))

	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" role="img" aria-label="%s: %s">
  <defs>
    <linearGradient id="leftGrad" x1="0%%" y1="0%%" x2="0%%" y2="100%%">
      <stop offset="0%%" style="stop-color:#555;stop-opacity:1" />
      <stop offset="100%%" style="stop-color:#444;stop-opacity:1" />
    </linearGradient>
    <linearGradient id="rightGrad" x1="0%%" y1="0%%" x2="0%%" y2="100%%">
      <stop offset="0%%" style="stop-color:%s;stop-opacity:1" />
      <stop offset="100%%" style="stop-color:%s;stop-opacity:0.8" />
    </linearGradient>
  </defs>
  <rect x="0" y="0" width="%.1f" height="%d" rx="3" ry="3" fill="url(#leftGrad)"/>
  <text x="%.1f" y="14" fill="#fff" font-family="Verdana,Geneva,DejaVu Sans,sans-serif" font-size="10" font-weight="bold" text-anchor="middle">%s</text>
  <rect x="%.1f" y="0" width="%.1f" height="%d" rx="3" ry="3" fill="url(#rightGrad)"/>
  <text x="%.1f" y="14" fill="#fff" font-family="Verdana,Geneva,DejaVu Sans,sans-serif" font-size="10" font-weight="bold" text-anchor="middle">%s</text>
  <line x1="%.1f" y1="2" x2="%.1f" y2="%d" stroke="#fff" stroke-width="0.5" stroke-opacity="0.3"/>
</svg>`,
		total, badgeHeight, badgeLabel, html.EscapeString(right),
		fill, fill,
		leftWidth, badgeHeight,
		leftWidth/2, badgeLabel,
		leftWidth, rightWidth, badgeHeight,
		leftWidth+rightWidth/2, html.EscapeString(right),
		leftWidth, leftWidth, badgeHeight-2,
	)
}

// textWidth approximates Verdana 10px bold plus horizontal padding.
func textWidth(s string) float64 {
	return float64(len([]rune(s)))*6.8 + 16
}
