package domain

// StatusInfo carries the human-readable presentation of a complaint status
// for the public tracking view.
type StatusInfo struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

var statusInfos = map[ComplaintStatus]StatusInfo{
	StatusPending: {
		Label:       "Menunggu Review",
		Description: "Laporan Anda sedang menunggu untuk ditinjau oleh admin",
		Color:       "gray",
	},
	StatusReviewed: {
		Label:       "Sudah Ditinjau",
		Description: "Laporan Anda telah ditinjau dan akan segera ditindaklanjuti",
		Color:       "blue",
	},
	StatusAssigned: {
		Label:       "Ditugaskan",
		Description: "Petugas lapangan telah ditugaskan untuk menangani laporan Anda",
		Color:       "blue",
	},
	StatusOnTheWay: {
		Label:       "Petugas Dalam Perjalanan",
		Description: "Petugas sedang menuju lokasi",
		Color:       "purple",
	},
	StatusWorking: {
		Label:       "Sedang Dikerjakan",
		Description: "Petugas sedang mengerjakan perbaikan",
		Color:       "yellow",
	},
	StatusCompleted: {
		Label:       "Selesai Dikerjakan",
		Description: "Pekerjaan selesai, menunggu verifikasi admin",
		Color:       "orange",
	},
	StatusApproved: {
		Label:       "Disetujui",
		Description: "Laporan pekerjaan telah disetujui",
		Color:       "green",
	},
	StatusResolved: {
		Label:       "Selesai",
		Description: "Laporan Anda telah selesai ditangani",
		Color:       "green",
	},
	StatusRevisionNeeded: {
		Label:       "Perlu Revisi",
		Description: "Pekerjaan perlu dilakukan perbaikan",
		Color:       "orange",
	},
	StatusRejected: {
		Label:       "Ditolak",
		Description: "Laporan tidak dapat diproses",
		Color:       "red",
	},
	StatusCancelled: {
		Label:       "Dibatalkan",
		Description: "Laporan dibatalkan",
		Color:       "red",
	},
}

// Info returns presentation metadata for the status, with a fallback for
// unknown values.
func (s ComplaintStatus) Info() StatusInfo {
	if info, ok := statusInfos[s]; ok {
		return info
	}
	return StatusInfo{Label: string(s), Description: "Status tidak diketahui", Color: "gray"}
}
