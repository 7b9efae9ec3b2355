package files

import (
	"mime"
	"strings"
)

const audioPrefix = "audio/"

// audioTypes covers common audio extensions the platform MIME table may lack.
// Lookups consult it first so detection does not depend on /etc/mime.types.
var audioTypes = map[string]string{
	".aac":  "audio/aac",
	".aif":  "audio/aiff",
	".aifc": "audio/aiff",
	".aiff": "audio/aiff",
	".amr":  "audio/amr",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".mid":  "audio/midi",
	".midi": "audio/midi",
	".mp2":  "audio/mpeg",
	".mp3":  "audio/mpeg",
	".mpga": "audio/mpeg",
	".oga":  "audio/ogg",
	".ogg":  "audio/ogg",
	".opus": "audio/opus",
	".wav":  "audio/wav",
	".weba": "audio/webm",
	".wma":  "audio/x-ms-wma",
}

// DetectContentType guesses the MIME type of path from its extension alone.
// The file contents are never read. ok is false when no type is known.
func DetectContentType(path string) (contentType string, ok bool) {
	ext := strings.ToLower(Extension(path))
	if ext == "" {
		return "", false
	}
	if t, found := audioTypes[ext]; found {
		return t, true
	}

	t := mime.TypeByExtension(ext)
	if t == "" {
		return "", false
	}
	mediaType, _, err := mime.ParseMediaType(t)
	if err != nil {
		return "", false
	}
	return mediaType, true
}

// IsAudioContentType reports whether contentType belongs to the audio family.
func IsAudioContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), audioPrefix)
}
