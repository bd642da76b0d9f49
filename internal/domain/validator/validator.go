package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// 可選欄位的跳過指令
const Skip = "/skip"

// ValidationError 帶有要回給使用者的訊息
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// UserMessage 取出 ValidationError 的訊息
func UserMessage(err error) (string, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message, true
	}
	return "", false
}

func IsSkip(input string) bool {
	return strings.TrimSpace(input) == Skip
}

var (
	nameRe = regexp.MustCompile(`^[а-яА-Яa-zA-ZёЁ'\-.\s]+$`)

	phoneOperators = map[string]bool{"25": true, "29": true, "33": true, "44": true}
)

func capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return word
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(word[size:])
}

// Name 每個字首字大寫, 以單一空白連接
func Name(input string) (string, error) {
	words := strings.Fields(input)
	for i, w := range words {
		words[i] = capitalize(w)
	}
	name := strings.Join(words, " ")

	n := utf8.RuneCountInString(name)
	if n < 2 || n > 49 {
		return "", invalid("name", "Name must be between 2 and 49 characters long.")
	}
	if !nameRe.MatchString(name) {
		return "", invalid("name", "Name may contain only letters, spaces, apostrophes, dots and hyphens.")
	}
	return name, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Phone 9 位數字, 前兩碼為電信商代碼
func Phone(input string) (string, error) {
	phone := strings.TrimSpace(input)
	if len(phone) != 9 || !isDigits(phone) {
		return "", invalid("phone", "Phone number must be exactly 9 digits, e.g. 291234567.")
	}
	if !phoneOperators[phone[:2]] {
		return "", invalid("phone", "Unknown operator code. Allowed codes: 25, 29, 33, 44.")
	}
	return phone, nil
}

// FormatPhone 顯示用
func FormatPhone(phone string) string {
	return "+375" + phone
}

// Street 只做格式檢查, 地址查詢另外處理
func Street(input string) (string, error) {
	street := strings.Join(strings.Fields(input), " ")

	n := utf8.RuneCountInString(street)
	if n < 3 || n > 49 {
		return "", invalid("street", "Street name must be between 3 and 49 characters long.")
	}
	digits := 0
	for _, r := range street {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits == n || isDigits(strings.ReplaceAll(street, " ", "")) {
		return "", invalid("street", "Street name cannot consist of digits only.")
	}
	if digits > 2 {
		return "", invalid("street", "Street name may contain at most 2 digits.")
	}
	r, size := utf8.DecodeRuneInString(street)
	return string(unicode.ToUpper(r)) + street[size:], nil
}

func intInRange(field, input string, min, max int) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || v < min || v > max {
		return 0, invalid(field, fmt.Sprintf("Enter a number from %d to %d.", min, max))
	}
	return v, nil
}

func House(input string) (int, error) {
	return intInRange("house", input, 1, 299)
}

// optionalInt 回傳 0 表示跳過
func optionalInt(field, input string, min, max int) (int, error) {
	if IsSkip(input) {
		return 0, nil
	}
	return intInRange(field, input, min, max)
}

func Apartment(input string) (int, error) {
	return optionalInt("apartment", input, 1, 999)
}

func Floor(input string) (int, error) {
	return optionalInt("floor", input, 1, 49)
}

func Entrance(input string) (int, error) {
	return optionalInt("entrance", input, 1, 29)
}

func Note(input string) (string, error) {
	if IsSkip(input) {
		return "", nil
	}
	note := strings.TrimSpace(input)
	if utf8.RuneCountInString(note) > 200 {
		return "", invalid("note", "Note must be at most 200 characters long.")
	}
	return note, nil
}

// Price 接受 , 或 . 作為小數點, 必須大於 0
func Price(input string) (decimal.Decimal, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(input), ",", ".")
	price, err := decimal.NewFromString(raw)
	if err != nil || !price.IsPositive() {
		return decimal.Zero, invalid("price", "Enter a positive price, e.g. 12.50")
	}
	return price.Round(2), nil
}

// OptionalPrice /skip 或 0 表示沒有此尺寸
func OptionalPrice(input string) (decimal.NullDecimal, error) {
	trimmed := strings.TrimSpace(input)
	if IsSkip(trimmed) || trimmed == "0" {
		return decimal.NullDecimal{}, nil
	}
	price, err := Price(trimmed)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(price), nil
}

func ProductName(input string) (string, error) {
	name := strings.Join(strings.Fields(input), " ")
	n := utf8.RuneCountInString(name)
	if n < 2 || n > 100 {
		return "", invalid("name", "Product name must be between 2 and 100 characters long.")
	}
	return name, nil
}

// OptionalText /skip 表示空值
func OptionalText(field, input string, max int) (string, error) {
	if IsSkip(input) {
		return "", nil
	}
	text := strings.TrimSpace(input)
	if utf8.RuneCountInString(text) > max {
		return "", invalid(field, fmt.Sprintf("Text must be at most %d characters long.", max))
	}
	return text, nil
}
