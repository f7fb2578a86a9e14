package wgsport

import (
	"fmt"
	"os"
)

// LoadTemplateHeader reads a captured template header blob: the fixed
// platform prefix (magic, generic header, format registry) extracted once
// from a reference save file. The blob is opaque to this package and is
// prepended verbatim to every exported file.
func LoadTemplateHeader(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template header: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("template header %s is empty", path)
	}
	return data, nil
}
