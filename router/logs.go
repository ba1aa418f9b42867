package router

import (
	"bufio"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

const tailLines = 1000

// GetDeviceLogs returns the last lines of udid's log file, grounded on the
// teacher's GetLogs (which shells out to `tail`), read directly here since
// the file already lives on this host.
func GetDeviceLogs(logFolder string) gin.HandlerFunc {
	return func(c *gin.Context) {
		udid := c.Param("udid")
		lines, err := tailFile(filepath.Join(logFolder, udid+".log"), tailLines)
		if err != nil {
			jsonError(c, "get_device_logs", err.Error(), http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, lines)
	}
}

func tailFile(path string, n int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]string, 0, n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		buf = append(buf, scanner.Text())
		if len(buf) > n {
			buf = buf[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	out := ""
	for _, line := range buf {
		out += line + "\n"
	}
	return out, nil
}
