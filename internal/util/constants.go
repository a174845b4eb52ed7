package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// 简历上传相关常量
const (
	MimePDF         = "application/pdf"
	MimePlainText   = "text/plain"
	MimeOctetStream = "application/octet-stream"
)

var (
	AllowedResumeExtensions = []string{".pdf", ".txt", ".doc", ".docx", ".md"}
)
