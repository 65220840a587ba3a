package mysqlclient

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/LadybugDB/go-mysqlclient/native"
)

// FormatDecimal writes the text form of d into buf and returns its length,
// ready for SetParameterLength on a slot added with AddDecimalParameter.
func FormatDecimal(d decimal.Decimal, buf []byte) (uint64, error) {
	text := d.String()
	if len(text) > len(buf) {
		return 0, fmt.Errorf("%w: decimal %s needs %d bytes, buffer has %d", ErrLogic, text, len(text), len(buf))
	}
	return uint64(copy(buf, text)), nil
}

// AddDecimalParameter appends a NEWDECIMAL descriptor over buf, which holds
// the decimal text. Call SetParameterLength with the length from
// FormatDecimal before binding.
func (stmt *PreparedStatement) AddDecimalParameter(buf []byte) {
	stmt.parameters = append(stmt.parameters, bytesBind(native.TypeNewDecimal, buf))
}

// AddDecimalResult appends a NEWDECIMAL descriptor over buf, which receives
// the decimal text of the column.
func (stmt *PreparedStatement) AddDecimalResult(buf []byte) {
	stmt.appendResult(bytesBind(native.TypeNewDecimal, buf))
}

// ResultDecimal parses the decimal column at index of the current row out of
// buf, the buffer given to AddDecimalResult.
func (stmt *PreparedStatement) ResultDecimal(index int, buf []byte) (decimal.NullDecimal, error) {
	isNull, err := stmt.ResultIsNull(index)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	if isNull {
		return decimal.NullDecimal{}, nil
	}
	n, _ := stmt.ResultLength(index)
	if n > uint64(len(buf)) {
		return decimal.NullDecimal{}, fmt.Errorf("%w: decimal column %d truncated to %d of %d bytes", ErrFetch, index, len(buf), n)
	}
	d, err := decimal.NewFromString(string(buf[:n]))
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%w: decimal column %d: %v", ErrFetch, index, err)
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}
