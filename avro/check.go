package avro

import (
	"fmt"

	"github.com/linkedin/goavro/v2"
)

// Check hands the rendered document to an independent parser (goavro) and
// reports whether it is accepted. Derived documents are expected to pass.
func Check(s *Schema) error {
	doc, err := s.MarshalJSON()
	if err != nil {
		return err
	}
	if _, err := goavro.NewCodec(string(doc)); err != nil {
		return &SchemaError{Msg: fmt.Sprintf("rejected by reference parser: %v", err)}
	}
	return nil
}
