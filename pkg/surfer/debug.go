package surfer

import (
	"fmt"
	"image"
	"net/url"
	"os"
	"path/filepath"

	"github.com/entrhq/surfer/pkg/som"
)

// Files written to the debug directory.
const (
	debugViewerFile     = "screenshot.html"
	debugScreenshotFile = "screenshot.png"
	debugScaledFile     = "screenshot_scaled.png"
)

// debugViewer reloads screenshot.png every 300ms so a turn can be watched live.
const debugViewer = `<html style="width:100%%; margin: 0px; padding: 0px;">
<body style="width: 100%%; margin: 0px; padding: 0px;">
    <img src="screenshot.png" id="main_image" style="width: 100%%; max-width: %dpx; margin: 0px; padding: 0px;">
    <script language="JavaScript">
var counter = 0;
setInterval(function() {
   counter += 1;
   document.getElementById("main_image").src = "screenshot.png?bc=" + counter;
}, 300);
    </script>
</body>
</html>`

// debugDir receives the screenshots of each turn.
type debugDir struct {
	path string
}

// newDebugDir creates dir if needed and writes the viewer page.
func newDebugDir(dir string, viewportWidth int) (*debugDir, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve debug directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create debug directory: %w", err)
	}
	viewer := fmt.Sprintf(debugViewer, viewportWidth)
	if err := os.WriteFile(filepath.Join(abs, debugViewerFile), []byte(viewer), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write debug viewer: %w", err)
	}
	return &debugDir{path: abs}, nil
}

// ViewerURI is the file:// URI of the viewer page.
func (d *debugDir) ViewerURI() string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(d.path, debugViewerFile))}
	return u.String()
}

func (d *debugDir) write(name string, data []byte) error {
	if d == nil {
		return nil
	}
	if err := os.WriteFile(filepath.Join(d.path, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// saveImage writes img to the debug directory, if any. Failures are logged.
func (s *Surfer) saveImage(name string, img image.Image) {
	if s.debug == nil {
		return
	}
	data, err := som.EncodePNG(img)
	if err == nil {
		err = s.debug.write(name, data)
	}
	if err != nil {
		surferLog.Warnf("failed to save debug screenshot: %v", err)
	}
}
