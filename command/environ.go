package command

import "os"

func currentEnviron() []string {
	return os.Environ()
}
