package extract

import (
	"fmt"

	"github.com/lu4p/cat"
)

// extractWithCat handles the formats lu4p/cat detects by content: RTF and ODT.
func extractWithCat(content []byte) (string, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return "", fmt.Errorf("extract document: %w", err)
	}
	return text, nil
}
