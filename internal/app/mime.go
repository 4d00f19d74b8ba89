package app

import (
	"log"
	"mime"
)

// Minimal container images ship without /etc/mime.types, which leaves the
// static file server guessing.
func init() {
	ensureMimeType(".css", "text/css; charset=utf-8")
	ensureMimeType(".js", "text/javascript; charset=utf-8")
	ensureMimeType(".svg", "image/svg+xml")
	ensureMimeType(".webmanifest", "application/manifest+json")
}

func ensureMimeType(ext, typ string) {
	if mime.TypeByExtension(ext) != "" {
		return
	}
	if err := mime.AddExtensionType(ext, typ); err != nil {
		log.Printf("app: failed to register MIME type for %s: %v", ext, err)
	}
}
