package realtime

// Presence 维护用户与连接之间的双向映射以及全局在线集合。
// 两个方向的表只通过成对的 Bind/Unbind 更新，保证不会失配。
// 本身不加锁，由 Coordinator 的互斥锁保护。
type Presence struct {
	userConn map[string]string
	connUser map[string]string
	online   map[string]struct{}
}

func NewPresence() *Presence {
	return &Presence{
		userConn: make(map[string]string),
		connUser: make(map[string]string),
		online:   make(map[string]struct{}),
	}
}

// Bind 为用户安装新连接并标记在线。若用户原先绑定了别的连接，
// 返回旧连接键，由调用方执行驱逐路径。
func (p *Presence) Bind(userID, connID string) (old string, evicted bool) {
	if prev, ok := p.userConn[userID]; ok && prev != connID {
		delete(p.connUser, prev)
		old, evicted = prev, true
	}
	p.userConn[userID] = connID
	p.connUser[connID] = userID
	p.online[userID] = struct{}{}
	return old, evicted
}

// UnbindConn 按连接解除双向映射，不触碰在线集合。重复调用是安全的。
func (p *Presence) UnbindConn(connID string) (userID string, ok bool) {
	userID, ok = p.connUser[connID]
	if !ok {
		return "", false
	}
	delete(p.connUser, connID)
	if p.userConn[userID] == connID {
		delete(p.userConn, userID)
	}
	return userID, true
}

// UnbindUser 按用户解除双向映射，不触碰在线集合。
func (p *Presence) UnbindUser(userID string) (connID string, ok bool) {
	connID, ok = p.userConn[userID]
	if !ok {
		return "", false
	}
	delete(p.userConn, userID)
	delete(p.connUser, connID)
	return connID, true
}

// SetOffline 把用户从在线集合移除。
func (p *Presence) SetOffline(userID string) {
	delete(p.online, userID)
}

func (p *Presence) IsOnline(userID string) bool {
	_, ok := p.online[userID]
	return ok
}

// ConnOf 返回用户当前绑定的连接键。
func (p *Presence) ConnOf(userID string) (string, bool) {
	connID, ok := p.userConn[userID]
	return connID, ok
}

// UserOf 返回连接当前绑定的用户。
func (p *Presence) UserOf(connID string) (string, bool) {
	userID, ok := p.connUser[connID]
	return userID, ok
}
