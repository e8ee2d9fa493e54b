package botsmith

import "github.com/aretw0/botsmith/pkg/domain"

// Names of the files in a Bundle.
const (
	ProgramFile      = "bot.py"
	RequirementsFile = "requirements.txt"
	ReadmeFile       = "README.md"
	DockerFile       = "Dockerfile"
	EnvFile          = ".env"
)

// Artifact is one generated file.
type Artifact struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Bundle is the result of a compilation. Nothing is written to disk.
type Bundle struct {
	// Program is the bot source, also present in Files as bot.py.
	Program     string             `json:"program"`
	Files       []Artifact         `json:"files"`
	Diagnostics domain.Diagnostics `json:"diagnostics"`
}

// File returns the artifact with the given name.
func (b *Bundle) File(name string) (Artifact, bool) {
	for _, f := range b.Files {
		if f.Name == name {
			return f, true
		}
	}
	return Artifact{}, false
}
