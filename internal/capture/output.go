package capture

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/breeze-rmm/spout2media/internal/spout"
)

const maxSenderNameLen = 255

// Output is the media output configuration the host hands to the capture.
type Output struct {
	SenderName string
}

// Validate rejects sender names the Spout namespace cannot hold.
func (o Output) Validate() error {
	name := o.SenderName
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("sender name is empty")
	}
	if len(name) > maxSenderNameLen {
		return fmt.Errorf("sender name is %d bytes, maximum is %d", len(name), maxSenderNameLen)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("sender name %q contains control characters", name)
		}
	}
	if err := spout.ValidateName(name); err != nil {
		return fmt.Errorf("sender name: %w", err)
	}
	return nil
}
