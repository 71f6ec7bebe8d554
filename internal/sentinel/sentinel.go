package sentinel

var _ error = Error("")

// Error is a string-backed error that can be declared as a const.
// Values compare with ==, so errors.Is matches them through wrapped chains.
type Error string

// Error implements the error interface.
func (e Error) Error() string {
	return string(e)
}
