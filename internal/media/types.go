package media

import "strings"

// Kind classifies an asset by the thumbnail strategy it needs.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindModel Kind = "model"
	KindOther Kind = "other"
)

// ModelExtension is the only 3D format the offscreen renderer accepts.
const ModelExtension = ".glb"

var kindByExtension = map[string]Kind{
	".png":         KindImage,
	".jpg":         KindImage,
	".jpeg":        KindImage,
	".mp4":         KindVideo,
	".mov":         KindVideo,
	".avi":         KindVideo,
	".webm":        KindVideo,
	ModelExtension: KindModel,
}

// KindForExtension maps a file extension (with dot, any case) to its Kind.
func KindForExtension(ext string) Kind {
	if kind, ok := kindByExtension[strings.ToLower(strings.TrimSpace(ext))]; ok {
		return kind
	}
	return KindOther
}

// ContentType returns the MIME type stored alongside an uploaded object.
func ContentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".svg":
		return "image/svg+xml"
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".avi":
		return "video/x-msvideo"
	case ".webm":
		return "video/webm"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".aac":
		return "audio/aac"
	case ".glb":
		return "model/gltf-binary"
	case ".gltf":
		return "model/gltf+json"
	case ".obj":
		return "model/obj"
	default:
		return "application/octet-stream"
	}
}
