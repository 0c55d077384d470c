package decoders

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aldertree/strataplay/pkg/decoders/flac"
	"github.com/aldertree/strataplay/pkg/decoders/mp3"
	"github.com/aldertree/strataplay/pkg/decoders/ogg"
	"github.com/aldertree/strataplay/pkg/decoders/opus"
	"github.com/aldertree/strataplay/pkg/decoders/wav"
	"github.com/aldertree/strataplay/pkg/types"
)

// NewDecoder creates and opens the appropriate decoder based on file extension.
// Supports .mp3, .flac, .fla, .wav, .ogg, and .opus formats.
// Returns an opened decoder ready for use, or an error if the format is unsupported
// or the file cannot be opened.
func NewDecoder(fileName string) (types.AudioDecoder, error) {
	ext := strings.ToLower(filepath.Ext(fileName))

	var decoder types.AudioDecoder

	switch ext {
	case ".mp3":
		decoder = mp3.NewDecoder()
	case ".flac", ".fla":
		decoder = flac.NewDecoder()
	case ".wav":
		decoder = wav.NewDecoder()
	case ".ogg":
		decoder = ogg.NewDecoder()
	case ".opus":
		decoder = opus.NewDecoder()
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .mp3, .flac, .fla, .wav, .ogg, .opus)", ext)
	}

	if err := decoder.Open(fileName); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrOpenFailed, fileName, err)
	}

	return decoder, nil
}
