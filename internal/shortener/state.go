package shortener

// allocState 分配流程的状态
type allocState int

const (
	stateGenerating allocState = iota
	stateChecking
	stateInserting
	stateRetry
	stateSuccess
	stateExhausted
	stateFailed
)

func (s allocState) String() string {
	switch s {
	case stateGenerating:
		return "generating"
	case stateChecking:
		return "checking"
	case stateInserting:
		return "inserting"
	case stateRetry:
		return "retry"
	case stateSuccess:
		return "success"
	case stateExhausted:
		return "exhausted"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

func (s allocState) terminal() bool {
	return s == stateSuccess || s == stateExhausted || s == stateFailed
}

// allocEvent 每个状态执行完成后产生的结果
type allocEvent int

const (
	eventNone allocEvent = iota
	eventGenerated
	eventFree
	eventTaken
	eventInserted
	eventCollision
	eventError
)

// nextState 纯函数的状态转移。attempt 是已经开始的生成次数。
func nextState(cur allocState, ev allocEvent, attempt, maxAttempts int) allocState {
	if ev == eventError {
		return stateFailed
	}
	switch cur {
	case stateGenerating:
		if ev == eventGenerated {
			return stateChecking
		}
	case stateChecking:
		switch ev {
		case eventFree:
			return stateInserting
		case eventTaken:
			return stateRetry
		}
	case stateInserting:
		switch ev {
		case eventInserted:
			return stateSuccess
		case eventCollision:
			return stateRetry
		}
	case stateRetry:
		if attempt < maxAttempts {
			return stateGenerating
		}
		return stateExhausted
	case stateSuccess, stateExhausted, stateFailed:
		return cur
	}
	return stateFailed
}
