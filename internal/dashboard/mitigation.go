package dashboard

// Advice is one mitigation recommendation.
type Advice struct {
	Title  string
	Detail string
}

// Mitigation holds the recommendations for the public and for the disaster agency.
type Mitigation struct {
	Community []Advice
	Agency    []Advice
}

var dangerMitigation = Mitigation{
	Community: []Advice{
		{"Hindari bantaran sungai", "Potensi banjir bandang meningkat."},
		{"Periksa saluran air", "Pastikan drainase tidak tersumbat sampah."},
		{"Waspada longsor", "Hindari area tebing curam di kawasan Puncak."},
		{"Siapkan Tas Siaga Bencana", "Dokumen penting, obat, dan senter."},
	},
	Agency: []Advice{
		{"Broadcast Peringatan", "Kirim notifikasi SMS blast ke warga Citeko/Puncak."},
		{"Siagakan Alat Berat", "Fokus di titik rawan longsor jalur Puncak."},
		{"Tim Reaksi Cepat", "Standby di posko bencana kecamatan."},
	},
}

var safeMitigation = Mitigation{
	Community: []Advice{
		{"Aktivitas Normal", "Aman untuk beraktivitas di luar ruangan."},
		{"Pemeliharaan", "Lakukan pembersihan selokan secara rutin."},
		{"Hemat Air", "Manfaatkan kondisi cerah untuk menampung air bersih."},
	},
	Agency: []Advice{
		{"Monitoring Rutin", "Terus pantau data telemetri AWS."},
		{"Maintenance Alat", "Cek sensor curah hujan dan anemometer."},
	},
}

// MitigationFor returns the recommendations for a danger or safe outcome.
func MitigationFor(isDanger bool) Mitigation {
	if isDanger {
		return dangerMitigation
	}
	return safeMitigation
}

// Recommendation is the one-line action printed on the report.
func Recommendation(isDanger bool) string {
	if isDanger {
		return "[SIAGA] Aktifkan protokol bencana."
	}
	return "[NORMAL] Lakukan monitoring rutin."
}
