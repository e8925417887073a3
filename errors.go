/*
Copyright © 2019 the PIC authors.
This file is part of PIC.

PIC is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

PIC is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with PIC.  If not, see <http://www.gnu.org/licenses/>.
*/

package pic

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned by operations that the receiver's geometry
// does not provide.
var ErrUnsupported = errors.New("pic: operation not supported for this geometry")

// ConfigError reports an invalid construction parameter.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("pic: invalid configuration: %s=%s", e.Field, e.Reason)
}

// NewConfigError returns a *ConfigError for field with a formatted reason.
func NewConfigError(field, format string, args ...interface{}) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Unsupported wraps ErrUnsupported with the name of the operation.
func Unsupported(op string) error {
	return fmt.Errorf("%s: %w", op, ErrUnsupported)
}
