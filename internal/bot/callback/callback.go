package callback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
)

// telegram callback_data 上限
const MaxDataLen = 64

var (
	ErrUnknownAction = errors.New("unknown callback action")
	ErrMalformed     = errors.New("malformed callback data")
	ErrMissingField  = errors.New("callback field missing")
	ErrTooLong       = errors.New("callback data too long")
)

type Action string

const (
	ActionMainMenu    Action = "main"
	ActionCatalog     Action = "catalog"
	ActionCategory    Action = "cat"
	ActionProductInfo Action = "info"
	ActionAddToCart   Action = "add"
	ActionCart        Action = "cart"
	ActionPlus        Action = "plus"
	ActionMinus       Action = "minus"
	ActionRemove      Action = "rm"
	ActionClearCart   Action = "clear"
	ActionCheckout    Action = "checkout"
	ActionCancelFlow  Action = "cancel"
	ActionEditStreet  Action = "street"
	ActionSkip        Action = "skip"
	ActionOrders      Action = "orders"
	ActionOrder       Action = "order"
	ActionPay         Action = "pay"
	ActionCancelOrder Action = "ocancel"
	ActionContacts    Action = "contacts"
	ActionNoop        Action = "noop"

	ActionAdmin         Action = "adm"
	ActionAdminAdd      Action = "adm_add"
	ActionAdminCategory Action = "adm_cat"
	ActionAdminProducts Action = "adm_prods"
	ActionAdminEdit     Action = "adm_edit"
	ActionAdminField    Action = "adm_field"
	ActionAdminSetCat   Action = "adm_setcat"
	ActionAdminDelete   Action = "adm_del"
	ActionAdminDeleteOK Action = "adm_del_ok"
	ActionAdminList     Action = "adm_list"
	ActionAdminInfo     Action = "adm_info"
	ActionAdminDismiss  Action = "adm_dismiss"
	ActionAdminNew      Action = "adm_new"
	ActionAdminHealth   Action = "adm_health"
)

type field byte

const (
	fProduct  field = 'p'
	fSize     field = 's'
	fOrder    field = 'o'
	fUser     field = 'u'
	fCategory field = 'c'
	fField    field = 'f'
)

// 每個 action 必要的欄位
var required = map[Action][]field{
	ActionMainMenu:    nil,
	ActionCatalog:     nil,
	ActionCategory:    {fCategory},
	ActionProductInfo: {fProduct},
	ActionAddToCart:   {fProduct, fSize},
	ActionCart:        nil,
	ActionPlus:        {fProduct, fSize},
	ActionMinus:       {fProduct, fSize},
	ActionRemove:      {fProduct, fSize},
	ActionClearCart:   nil,
	ActionCheckout:    nil,
	ActionCancelFlow:  nil,
	ActionEditStreet:  nil,
	ActionSkip:        nil,
	ActionOrders:      nil,
	ActionOrder:       {fOrder},
	ActionPay:         {fOrder},
	ActionCancelOrder: {fOrder},
	ActionContacts:    nil,
	ActionNoop:        nil,

	ActionAdmin:         nil,
	ActionAdminAdd:      nil,
	ActionAdminCategory: {fCategory},
	ActionAdminProducts: nil,
	ActionAdminEdit:     {fProduct},
	ActionAdminField:    {fProduct, fField},
	ActionAdminSetCat:   {fProduct, fCategory},
	ActionAdminDelete:   {fProduct},
	ActionAdminDeleteOK: {fProduct},
	ActionAdminList:     nil,
	ActionAdminInfo:     {fUser},
	ActionAdminDismiss:  {fUser},
	ActionAdminNew:      nil,
	ActionAdminHealth:   nil,
}

// Callback inline 按鈕帶的資料
type Callback struct {
	Action    Action
	ProductID uint
	Size      model.Size
	OrderID   uint
	UserID    int64
	Category  model.Category
	Field     string
}

func New(action Action) Callback {
	return Callback{Action: action}
}

func (c Callback) WithProduct(id uint, size model.Size) Callback {
	c.ProductID = id
	c.Size = size
	return c
}

func (c Callback) WithOrder(id uint) Callback {
	c.OrderID = id
	return c
}

func (c Callback) WithUser(id int64) Callback {
	c.UserID = id
	return c
}

func (c Callback) WithCategory(category model.Category) Callback {
	c.Category = category
	return c
}

func (c Callback) WithField(f string) Callback {
	c.Field = f
	return c
}

// Encode 格式 action:k=v:k=v
func (c Callback) Encode() (string, error) {
	if _, ok := required[c.Action]; !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownAction, c.Action)
	}
	if err := c.validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(string(c.Action))
	add := func(f field, v string) {
		if v == "" {
			return
		}
		b.WriteByte(':')
		b.WriteByte(byte(f))
		b.WriteByte('=')
		b.WriteString(v)
	}
	if c.ProductID != 0 {
		add(fProduct, strconv.FormatUint(uint64(c.ProductID), 10))
	}
	add(fSize, string(c.Size))
	if c.OrderID != 0 {
		add(fOrder, strconv.FormatUint(uint64(c.OrderID), 10))
	}
	if c.UserID != 0 {
		add(fUser, strconv.FormatInt(c.UserID, 10))
	}
	add(fCategory, string(c.Category))
	add(fField, c.Field)

	data := b.String()
	if len(data) > MaxDataLen {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLong, len(data))
	}
	return data, nil
}

// MustEncode 鍵盤建構使用, 參數來自程式內部
func (c Callback) MustEncode() string {
	data, err := c.Encode()
	if err != nil {
		panic(err)
	}
	return data
}

func Decode(data string) (Callback, error) {
	if data == "" || len(data) > MaxDataLen {
		return Callback{}, ErrMalformed
	}
	parts := strings.Split(data, ":")
	c := Callback{Action: Action(parts[0])}
	if _, ok := required[c.Action]; !ok {
		return Callback{}, fmt.Errorf("%w %q", ErrUnknownAction, parts[0])
	}

	for _, part := range parts[1:] {
		if len(part) < 3 || part[1] != '=' {
			return Callback{}, fmt.Errorf("%w: %q", ErrMalformed, part)
		}
		value := part[2:]
		switch field(part[0]) {
		case fProduct:
			id, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return Callback{}, fmt.Errorf("%w: product %q", ErrMalformed, value)
			}
			c.ProductID = uint(id)
		case fSize:
			size, err := model.ParseSize(value)
			if err != nil {
				return Callback{}, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			c.Size = size
		case fOrder:
			id, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return Callback{}, fmt.Errorf("%w: order %q", ErrMalformed, value)
			}
			c.OrderID = uint(id)
		case fUser:
			id, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return Callback{}, fmt.Errorf("%w: user %q", ErrMalformed, value)
			}
			c.UserID = id
		case fCategory:
			category, err := model.ParseCategory(value)
			if err != nil {
				return Callback{}, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			c.Category = category
		case fField:
			c.Field = value
		default:
			return Callback{}, fmt.Errorf("%w: unknown key %q", ErrMalformed, part[:1])
		}
	}

	if err := c.validate(); err != nil {
		return Callback{}, err
	}
	return c, nil
}

func (c Callback) validate() error {
	for _, f := range required[c.Action] {
		missing := false
		switch f {
		case fProduct:
			missing = c.ProductID == 0
		case fSize:
			missing = c.Size == ""
		case fOrder:
			missing = c.OrderID == 0
		case fUser:
			missing = c.UserID == 0
		case fCategory:
			missing = c.Category == ""
		case fField:
			missing = c.Field == ""
		}
		if missing {
			return fmt.Errorf("%w: %s needs %c", ErrMissingField, c.Action, f)
		}
	}
	return nil
}
