package tzx

import "github.com/raxoft/pzxtools/pzx"

// infoCategoryName maps an archive-info item type byte to the label
// text convertInfo prefixes non-title strings with.
func infoCategoryName(kind byte) string {
	switch kind {
	case 0x00:
		return "Title"
	case 0x01:
		return "Publisher"
	case 0x02:
		return "Author"
	case 0x03:
		return "Year"
	case 0x04:
		return "Language"
	case 0x05:
		return "Type"
	case 0x06:
		return "Price"
	case 0x07:
		return "Protection"
	case 0x08:
		return "Origin"
	case 0xFF:
		return "Comment"
	default:
		return "Info"
	}
}

// convertInfo walks the leading count byte followed by that many (type,
// length, bytes) triples of an archive info block's data. When
// titleOnly, it emits just the tape title (type 0x00) as the first PZX
// info string and returns immediately, falling back to "Some tape" if
// the loop finishes without ever finding one. Otherwise it emits every
// item except the title, each preceded by its category label.
func convertInfo(w *pzx.Writer, items []byte, titleOnly bool) {
	if len(items) < 1 {
		if titleOnly {
			w.Info("Some tape")
		}
		return
	}

	count := int(items[0])
	pos := 1

	for i := 0; i < count; i++ {
		if pos+2 > len(items) {
			break
		}
		kind := items[pos]
		length := int(items[pos+1])
		pos += 2
		if pos+length > len(items) {
			break
		}
		text := string(items[pos : pos+length])
		pos += length

		if titleOnly {
			if kind == 0x00 {
				w.Info(text)
				return
			}
			continue
		}
		if kind == 0x00 {
			continue
		}

		w.Info(infoCategoryName(kind))
		w.Info(text)
	}

	if titleOnly {
		w.Info("Some tape")
	}
}
