package flow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/RoyceAzure/lab/pizzabot/internal/domain/validator"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/geocoder"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/pizzabot/internal/service"
	"github.com/rs/zerolog"
)

const (
	StageName      Stage = "name"
	StagePhone     Stage = "phone"
	StageStreet    Stage = "street"
	StageHouse     Stage = "house"
	StageApartment Stage = "apartment"
	StageFloor     Stage = "floor"
	StageEntrance  Stage = "entrance"
	StageNote      Stage = "note"
)

var ErrUnknownStage = errors.New("unknown stage")

const streetWarning = "⚠️ We could not verify this street. Please make sure it is spelled correctly."

var orderPrompts = map[Stage]string{
	StageName:      "👤 Enter your name:",
	StagePhone:     "📞 Enter your phone number (9 digits, e.g. 291234567):",
	StageStreet:    "🏙 Enter the street:",
	StageHouse:     "🏠 Enter the house number:",
	StageApartment: "🚪 Enter the apartment number or press Skip:",
	StageFloor:     "🛗 Enter the floor or press Skip:",
	StageEntrance:  "🚶 Enter the entrance number or press Skip:",
	StageNote:      "📝 Add a note for the courier or press Skip:",
}

var skippable = map[Stage]bool{
	StageApartment: true,
	StageFloor:     true,
	StageEntrance:  true,
	StageNote:      true,
}

// OrderFlow 下單表單, 依序 name -> phone -> street -> house -> apartment -> floor -> entrance -> note
type OrderFlow struct {
	streets geocoder.StreetResolver
	logger  *zerolog.Logger
}

func NewOrderFlow(streets geocoder.StreetResolver, logger *zerolog.Logger) *OrderFlow {
	return &OrderFlow{streets: streets, logger: logger}
}

func (f *OrderFlow) Start() *redis_repo.Session {
	return Start(FlowOrder, StageName)
}

func Prompt(stage Stage) string {
	if p, ok := orderPrompts[stage]; ok {
		return p
	}
	return productPrompts[stage]
}

func Skippable(stage Stage) bool {
	return skippable[stage] || productSkippable[stage]
}

/*
Advance 處理目前階段的輸入
驗證失敗回傳 ValidationError, 階段不變
*/
func (f *OrderFlow) Advance(ctx context.Context, sess *redis_repo.Session, input string) (Transition, error) {
	stage := Stage(sess.Stage)
	switch stage {
	case StageName:
		name, err := validator.Name(input)
		if err != nil {
			return Transition{Stage: stage}, err
		}
		sess.Set("name", name)
		return advance(sess, StagePhone), nil

	case StagePhone:
		phone, err := validator.Phone(input)
		if err != nil {
			return Transition{Stage: stage}, err
		}
		sess.Set("phone", phone)
		return advance(sess, StageStreet), nil

	case StageStreet:
		street, err := validator.Street(input)
		if err != nil {
			return Transition{Stage: stage}, err
		}
		canonical, warning := f.resolveStreet(ctx, street)
		sess.Set("street", canonical)
		t := advance(sess, StageHouse)
		t.Warning = warning
		return t, nil

	case StageHouse:
		return f.setInt(sess, "house", input, validator.House, StageApartment)
	case StageApartment:
		return f.setInt(sess, "apartment", input, validator.Apartment, StageFloor)
	case StageFloor:
		return f.setInt(sess, "floor", input, validator.Floor, StageEntrance)
	case StageEntrance:
		return f.setInt(sess, "entrance", input, validator.Entrance, StageNote)

	case StageNote:
		note, err := validator.Note(input)
		if err != nil {
			return Transition{Stage: stage}, err
		}
		sess.Set("note", note)
		return advance(sess, StageDone), nil
	}
	return Transition{Stage: stage}, fmt.Errorf("%w %q", ErrUnknownStage, sess.Stage)
}

func (f *OrderFlow) setInt(sess *redis_repo.Session, key, input string, parse func(string) (int, error), next Stage) (Transition, error) {
	v, err := parse(input)
	if err != nil {
		return Transition{Stage: Stage(sess.Stage)}, err
	}
	sess.Set(key, strconv.Itoa(v))
	return advance(sess, next), nil
}

// resolveStreet 查不到或查詢失敗時接受原輸入並提示
func (f *OrderFlow) resolveStreet(ctx context.Context, street string) (string, string) {
	if f.streets == nil {
		return street, streetWarning
	}
	canonical, err := f.streets.ResolveStreet(ctx, street)
	if err != nil {
		if !errors.Is(err, geocoder.ErrStreetNotFound) && !errors.Is(err, geocoder.ErrNoAPIKey) {
			f.logger.Warn().Err(err).Str("street", street).Msg("geocoder lookup failed")
		}
		return street, streetWarning
	}
	return canonical, ""
}

// EditStreet 回到街道階段, 之後的欄位重新填寫
func (f *OrderFlow) EditStreet(sess *redis_repo.Session) {
	for _, key := range []string{"street", "house", "apartment", "floor", "entrance", "note"} {
		delete(sess.Data, key)
	}
	sess.Stage = string(StageStreet)
}

// Address 組成地址文字, 跳過的欄位不顯示
func Address(sess *redis_repo.Session) string {
	parts := []string{sess.Get("street")}
	for _, part := range []struct{ key, label string }{
		{"house", "house"},
		{"apartment", "apartment"},
		{"floor", "floor"},
		{"entrance", "entrance"},
	} {
		v := sess.Get(part.key)
		if v == "" || v == "0" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s", part.label, v))
	}
	return strings.Join(parts, ", ")
}

func Form(sess *redis_repo.Session) service.OrderForm {
	return service.OrderForm{
		ClientName: sess.Get("name"),
		Phone:      sess.Get("phone"),
		Address:    Address(sess),
		Note:       sess.Get("note"),
	}
}
