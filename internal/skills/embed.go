package skills

import (
	"embed"
	"io/fs"
)

//go:embed templates/default
var embeddedTemplates embed.FS

// DefaultSkeleton is the generic skill-skeleton tree installed when a
// project has no skills directory yet.
var DefaultSkeleton fs.FS = mustSub(embeddedTemplates, "templates/default")

func mustSub(f embed.FS, dir string) fs.FS {
	sub, err := fs.Sub(f, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
