package flow

import (
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/repository/redis_repo"
)

type Name string

const (
	FlowOrder       Name = "order"
	FlowProduct     Name = "product"
	FlowEditProduct Name = "edit_product"
	FlowNewAdmin    Name = "new_admin"
)

type Stage string

// Transition 驗證通過後的下一個階段
type Transition struct {
	Stage   Stage
	Warning string
	Done    bool
}

// Start 建立新的對話
func Start(flow Name, stage Stage) *redis_repo.Session {
	return &redis_repo.Session{Flow: string(flow), Stage: string(stage), Data: map[string]string{}}
}

func advance(sess *redis_repo.Session, next Stage) Transition {
	sess.Stage = string(next)
	return Transition{Stage: next, Done: next == StageDone}
}

// 所有流程共用的完成階段
const StageDone Stage = "done"
