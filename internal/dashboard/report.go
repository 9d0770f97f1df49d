package dashboard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/rainfall-ews/internal/domain"
)

// Report is a downloadable plain-text summary of one prediction.
type Report struct {
	Filename string
	Content  string
}

// NewReport renders the report for an observation and its result at time now.
func NewReport(station string, obs domain.Observation, result domain.PredictionResult, now time.Time) Report {
	var b strings.Builder
	b.WriteString("LAPORAN PERINGATAN DINI CUACA CITEKO\n")
	b.WriteString("====================================\n")
	fmt.Fprintf(&b, "Tanggal Generate : %s\n", now.Format("02-01-2006 15:04"))
	fmt.Fprintf(&b, "Lokasi           : %s\n", station)
	b.WriteString("\n")
	b.WriteString("DATA INPUT:\n")
	fmt.Fprintf(&b, "- Curah Hujan Hari Ini : %s mm\n", formatReading(obs.RR))
	fmt.Fprintf(&b, "- Kelembaban Rata-rata : %s %%\n", formatReading(obs.RHAvg))
	fmt.Fprintf(&b, "- Suhu Rata-rata       : %s C\n", formatReading(obs.TAvg))
	b.WriteString("\n")
	b.WriteString("HASIL PREDIKSI (H+1):\n")
	fmt.Fprintf(&b, "- Status           : %s\n", result.Status())
	fmt.Fprintf(&b, "- Probabilitas     : %.2f%%\n", result.Probability*100)
	fmt.Fprintf(&b, "- Threshold Model  : %.2f\n", result.Threshold)
	b.WriteString("\n")
	b.WriteString("REKOMENDASI:\n")
	b.WriteString(Recommendation(result.IsDanger) + "\n")
	b.WriteString("\n")
	b.WriteString("Dibuat oleh Sistem EWS berbasis XGBoost.\n")

	return Report{
		Filename: ReportFilename(now),
		Content:  b.String(),
	}
}

// ReportFilename returns Laporan_EWS_YYYYMMDD_HHMM.txt for t.
func ReportFilename(t time.Time) string {
	return "Laporan_EWS_" + t.Format("20060102_1504") + ".txt"
}

// formatReading prints a value at full precision, keeping one decimal for
// whole numbers (60 prints as 60.0).
func formatReading(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
