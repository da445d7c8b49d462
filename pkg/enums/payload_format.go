package enums

// PayloadFormat is the discriminator attached to a decoded cart payload,
// recording which branch of the decode chain succeeded.
type PayloadFormat string

const (
	FormatPHPSerialized           PayloadFormat = "php_serialized"
	FormatJSON                    PayloadFormat = "json"
	FormatCompressedPHPSerialized PayloadFormat = "compressed_php_serialized"
	FormatCompressedJSON          PayloadFormat = "compressed_json"
)

// Compressed reports whether the payload was stored compressed.
func (f PayloadFormat) Compressed() bool {
	return f == FormatCompressedPHPSerialized || f == FormatCompressedJSON
}
