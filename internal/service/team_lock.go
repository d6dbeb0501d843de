package service

import "sync"

// teamLocker 按团队 ID 串行化排班生成与换班接受。
// 进程内互斥 + 仓储层乐观锁双重保证；锁条目按需创建后不回收（团队数量有限）。
type teamLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newTeamLocker() *teamLocker {
	return &teamLocker{locks: make(map[string]*sync.Mutex)}
}

// Lock 获取团队级互斥锁，返回解锁函数
func (l *teamLocker) Lock(teamID string) func() {
	l.mu.Lock()
	m, ok := l.locks[teamID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[teamID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
