package tzx

import (
	"github.com/pkg/errors"

	"github.com/raxoft/pzxtools/logging"
)

const (
	supportedMajorVersion = 1
	supportedMinorVersion = 20
)

// fileHeader is the first 10 bytes of every TZX/CDT file: the literal
// signature "ZXTape!", an end-of-text marker, then the major/minor
// revision of the TZX specification the file was written against.
type fileHeader struct {
	signature    [7]byte
	terminator   uint8
	majorVersion uint8
	minorVersion uint8
}

func parseHeader(data []byte) (fileHeader, []byte, error) {
	if len(data) < 10 {
		return fileHeader{}, nil, errors.New("tzx: file is too short to contain a header")
	}

	var h fileHeader
	copy(h.signature[:], data[0:7])
	h.terminator = data[7]
	h.majorVersion = data[8]
	h.minorVersion = data[9]

	if err := h.valid(); err != nil {
		return h, nil, err
	}

	return h, data[10:], nil
}

func (h fileHeader) valid() error {
	if string(h.signature[:]) != "ZXTape!" {
		return errors.Errorf("tzx: incorrect signature, got %q", h.signature)
	}
	if h.terminator != 0x1a {
		return errors.Errorf("tzx: incorrect terminator byte 0x%02x", h.terminator)
	}
	if h.majorVersion != supportedMajorVersion {
		return errors.Errorf("tzx: unsupported major version %d.%d", h.majorVersion, h.minorVersion)
	}
	return nil
}

// checkGlue validates a 0x5A glue block's embedded version header,
// warning (rather than failing) when only the minor version is newer
// than this renderer knows about.
func checkGlue(header []byte) error {
	major := header[7]
	minor := header[8]
	if major != supportedMajorVersion {
		return errors.Errorf("tzx: glue block declares unsupported major version %d.%d", major, minor)
	}
	if minor > supportedMinorVersion {
		logging.Warn("unsupported TZX minor version %d.%d - proceeding", major, minor)
	}
	return nil
}
