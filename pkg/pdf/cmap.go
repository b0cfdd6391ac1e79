package pdf

import (
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
	"unicode/utf16"
)

// ToUnicodeCMap maps character IDs to Unicode text using the bfchar
// and bfrange sections of a font's ToUnicode stream.
type ToUnicodeCMap struct {
	cidToUnicode map[uint16]string
	ranges       []cmapRange
}

// cmapRange is one bfrange entry. The contiguous form keeps a prefix
// plus an incrementing final code point; the array form lists one
// replacement per CID.
type cmapRange struct {
	startCID uint16
	endCID   uint16

	unicodePrefix string
	unicodeStart  rune

	unicodeArray []string
}

func NewToUnicodeCMap() *ToUnicodeCMap {
	return &ToUnicodeCMap{
		cidToUnicode: make(map[uint16]string),
		ranges:       []cmapRange{},
	}
}

var (
	bfCharSectionRe  = regexp.MustCompile(`(?s)beginbfchar(.*?)endbfchar`)
	bfRangeSectionRe = regexp.MustCompile(`(?s)beginbfrange(.*?)endbfrange`)
	bfCharPairRe     = regexp.MustCompile(`<([0-9A-Fa-f]+)>\s*<([0-9A-Fa-f]+)>`)
	bfRangeEntryRe   = regexp.MustCompile(`<([0-9A-Fa-f]+)>\s*<([0-9A-Fa-f]+)>\s*(<[0-9A-Fa-f]+>|\[[^\]]*\])`)
	hexTokenRe       = regexp.MustCompile(`<([0-9A-Fa-f]+)>`)
)

// Parse reads the mapping sections of a ToUnicode stream. A stream
// with no usable mappings is reported as an error so callers can skip
// attaching the CMap.
func (cmap *ToUnicodeCMap) Parse(data []byte) error {
	content := string(data)

	cmap.parseBFChars(content)
	cmap.parseBFRanges(content)

	if len(cmap.cidToUnicode) == 0 && len(cmap.ranges) == 0 {
		return errors.New("no bfchar or bfrange mappings found")
	}
	return nil
}

func (cmap *ToUnicodeCMap) parseBFChars(content string) {
	for _, section := range bfCharSectionRe.FindAllStringSubmatch(content, -1) {
		for _, pair := range bfCharPairRe.FindAllStringSubmatch(section[1], -1) {
			cid, ok := parseCID(pair[1])
			if !ok {
				continue
			}

			dst, err := hex.DecodeString(pair[2])
			if err != nil || len(dst) == 0 {
				continue
			}

			cmap.cidToUnicode[cid] = utf16BEToString(dst)
		}
	}
}

func (cmap *ToUnicodeCMap) parseBFRanges(content string) {
	for _, section := range bfRangeSectionRe.FindAllStringSubmatch(content, -1) {
		for _, entry := range bfRangeEntryRe.FindAllStringSubmatch(section[1], -1) {
			startCID, ok := parseCID(entry[1])
			if !ok {
				continue
			}
			endCID, ok := parseCID(entry[2])
			if !ok || endCID < startCID {
				continue
			}

			dst := entry[3]
			if strings.HasPrefix(dst, "[") {
				cmap.addArrayRange(startCID, endCID, dst)
				continue
			}

			data, err := hex.DecodeString(strings.Trim(dst, "<>"))
			if err != nil || len(data) == 0 {
				continue
			}
			runes := []rune(utf16BEToString(data))
			if len(runes) == 0 {
				continue
			}

			cmap.ranges = append(cmap.ranges, cmapRange{
				startCID:      startCID,
				endCID:        endCID,
				unicodePrefix: string(runes[:len(runes)-1]),
				unicodeStart:  runes[len(runes)-1],
			})
		}
	}
}

// addArrayRange parses the bracketed bfrange form, which spells out
// each CID's replacement individually.
func (cmap *ToUnicodeCMap) addArrayRange(startCID, endCID uint16, list string) {
	var values []string
	for _, tok := range hexTokenRe.FindAllStringSubmatch(list, -1) {
		data, err := hex.DecodeString(tok[1])
		if err != nil {
			values = append(values, "")
			continue
		}
		values = append(values, utf16BEToString(data))
	}

	if len(values) == 0 {
		return
	}

	cmap.ranges = append(cmap.ranges, cmapRange{
		startCID:     startCID,
		endCID:       endCID,
		unicodeArray: values,
	})
}

// MapCIDToUnicode resolves a single CID.
func (cmap *ToUnicodeCMap) MapCIDToUnicode(cid uint16) (string, bool) {
	if unicode, ok := cmap.cidToUnicode[cid]; ok {
		return unicode, true
	}

	for _, r := range cmap.ranges {
		if cid < r.startCID || cid > r.endCID {
			continue
		}

		if len(r.unicodeArray) > 0 {
			if index := int(cid - r.startCID); index < len(r.unicodeArray) {
				return r.unicodeArray[index], true
			}
			continue
		}

		return r.unicodePrefix + string(r.unicodeStart+rune(cid-r.startCID)), true
	}

	return "", false
}

// Decode maps big-endian two-byte CIDs in data to text, retrying
// unmapped pairs as single-byte codes. Bytes with no mapping at all
// pass through unchanged.
func (cmap *ToUnicodeCMap) Decode(data []byte) string {
	var b strings.Builder

	for i := 0; i < len(data); i += 2 {
		if i+1 >= len(data) {
			b.WriteString(cmap.decodeByte(data[i]))
			break
		}

		cid := uint16(data[i])<<8 | uint16(data[i+1])
		if unicode, ok := cmap.MapCIDToUnicode(cid); ok {
			b.WriteString(unicode)
			continue
		}

		b.WriteString(cmap.decodeByte(data[i]))
		b.WriteString(cmap.decodeByte(data[i+1]))
	}

	return b.String()
}

func (cmap *ToUnicodeCMap) decodeByte(c byte) string {
	if unicode, ok := cmap.MapCIDToUnicode(uint16(c)); ok {
		return unicode
	}
	return string([]byte{c})
}

// DecodeHexString decodes a hex string, with or without its angle
// brackets, through the CMap.
func (cmap *ToUnicodeCMap) DecodeHexString(hexStr string) string {
	hexStr = strings.Trim(hexStr, "<>")

	data, err := hex.DecodeString(hexStr)
	if err != nil {
		return ""
	}

	return cmap.Decode(data)
}

// MappingCount returns the number of CIDs this CMap can resolve.
func (cmap *ToUnicodeCMap) MappingCount() int {
	count := len(cmap.cidToUnicode)

	for _, r := range cmap.ranges {
		if len(r.unicodeArray) > 0 {
			count += len(r.unicodeArray)
		} else {
			count += int(r.endCID-r.startCID) + 1
		}
	}

	return count
}

// parseCID reads a big-endian CID from hex digits, truncating codes
// longer than two bytes.
func parseCID(hexDigits string) (uint16, bool) {
	data, err := hex.DecodeString(hexDigits)
	if err != nil || len(data) == 0 {
		return 0, false
	}
	if len(data) == 1 {
		return uint16(data[0]), true
	}
	return uint16(data[0])<<8 | uint16(data[1]), true
}

// utf16BEToString decodes big-endian UTF-16 bytes, combining surrogate
// pairs and dropping a leading byte order mark. Multi-code-point
// replacements such as ligature expansions come through intact.
func utf16BEToString(data []byte) string {
	if len(data) == 1 {
		return string(rune(data[0]))
	}

	units := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		units = append(units, uint16(data[i])<<8|uint16(data[i+1]))
	}
	if len(units) > 0 && units[0] == 0xFEFF {
		units = units[1:]
	}

	return string(utf16.Decode(units))
}
