// Package launch generates the launch descriptor: a PowerShell script that
// starts the synced executable on the destination with the right environment,
// waits for it to exit, and tees its output to a log file.
//
// The descriptor is regenerated on every pass. It's synced like any other
// artifact, so it's only transferred when its contents change.
package launch

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/spf13/afero"

	"github.com/sidkik/artsync/pkg/errors"
)

// FileName is the name of the generated descriptor within a target
// directory.
const FileName = "start.ps1"

// DefaultLogFile is where the launched process's output is written.
const DefaultLogFile = "run.log"

// Mocked out for unit testing.
var fs = afero.NewOsFs()

// EnvVar is a variable set in the launched process's environment.
type EnvVar struct {
	Name  string
	Value string
}

// Descriptor describes how the executable is started.
type Descriptor struct {
	// Executable is the path of the executable on the destination, in the
	// destination's path syntax.
	Executable string

	// Env is set in the launched process, in order.
	Env []EnvVar

	// LibraryPaths are appended to the destination's PATH so that dynamically
	// linked libraries can be found.
	LibraryPaths []string

	// Elevated runs the process as administrator instead of in the current
	// window.
	Elevated bool

	// LogFile receives the process's output. Defaults to DefaultLogFile.
	LogFile string
}

var descriptorTemplate = template.Must(template.New("start.ps1").Funcs(template.FuncMap{
	"quote": quote,
}).Parse(`Start-Process {{ if .Elevated }}-Verb RunAs{{ else }}-NoNewWindow{{ end }} -Wait -Environment @{
{{- range .Env }}
{{ .Name }}={{ quote .Value }}
{{- end }}
PATH={{ quote .Path }}
} -FilePath {{ quote .Executable }} 2>&1 | Tee-Object -FilePath {{ quote .LogFile }}
`))

// quote renders a PowerShell double-quoted string. `$env:` references are
// kept so that the destination's environment is expanded at launch time.
func quote(s string) string {
	s = strings.ReplaceAll(s, "`", "``")
	s = strings.ReplaceAll(s, `"`, "`\"")
	return `"` + s + `"`
}

// Path returns the PATH value of the launched process.
func (d Descriptor) Path() string {
	path := "$env:PATH"
	if len(d.LibraryPaths) != 0 {
		path += ";" + strings.Join(d.LibraryPaths, ";") + ";"
	}
	return path
}

// Render returns the contents of the descriptor.
func Render(d Descriptor) (string, error) {
	if d.Executable == "" {
		return "", errors.MissingFieldError{Field: "executable"}
	}
	if d.LogFile == "" {
		d.LogFile = DefaultLogFile
	}

	for _, v := range d.Env {
		if !envNamePattern.MatchString(v.Name) {
			return "", errors.NewFriendlyError("Invalid environment variable name %q", v.Name)
		}
	}

	var buf bytes.Buffer
	if err := descriptorTemplate.Execute(&buf, d); err != nil {
		return "", errors.WithContext(err, "render")
	}
	return buf.String(), nil
}

var envNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Generate renders the descriptor and writes it to `path`, replacing any
// previous version.
func Generate(path string, d Descriptor) error {
	contents, err := Render(d)
	if err != nil {
		return err
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WithContext(err, "create directory")
	}

	if err := afero.WriteFile(fs, path, []byte(contents), 0644); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

var mountPattern = regexp.MustCompile(`^/mnt/([a-zA-Z])(/.*)?$`)

// WindowsPath converts a path on a WSL drive mount (/mnt/c/...) to the
// equivalent Windows path. Other paths are returned unchanged, with ok set to
// false.
func WindowsPath(path string) (winPath string, ok bool) {
	match := mountPattern.FindStringSubmatch(path)
	if match == nil {
		return path, false
	}

	rest := strings.ReplaceAll(strings.TrimPrefix(match[2], "/"), "/", `\`)
	return strings.ToUpper(match[1]) + `:\` + rest, true
}
