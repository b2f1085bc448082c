package realtime

import (
	"context"

	"watchparty/internal/metrics"
)

const historyLimit = 50

// SendDirect 先持久化私信，再视接收方在线与否决定是否投递。
// 发送方总是收到独立的发送回执事件（双方客户端渲染方式不同）。
// 存储往返期间接收方可能已经断开，届时按离线处理而不是报错。
func (co *Coordinator) SendDirect(ctx context.Context, senderID, senderConn, recipientID, text string) {
	stored, err := co.store.SaveDirectMessage(ctx, senderID, recipientID, text)
	if err != nil {
		co.logger.Error().Err(err).Str("from", senderID).Str("to", recipientID).Msg("failed to save direct message")
		co.bc.Send(senderConn, EventMessageError, map[string]string{"error": "Failed to send message"})
		return
	}

	sender, err := co.store.SenderProfile(ctx, senderID)
	if err != nil {
		co.logger.Warn().Err(err).Str("userID", senderID).Msg("failed to load sender profile")
		sender = SenderPeer{ID: senderID}
	}

	payload := DirectMessagePayload{
		ID:        stored.ID,
		From:      sender,
		Text:      stored.Text,
		CreatedAt: stored.CreatedAt,
	}

	co.mu.Lock()
	recipientConn, online := co.presence.ConnOf(recipientID)
	co.mu.Unlock()

	if online {
		co.bc.Send(recipientConn, PrivateMessageEvent(senderID), payload)
	}
	co.bc.Send(senderConn, MessageSentEvent(recipientID), payload)
	metrics.DirectMessagesTotal.Inc()
}

// FetchHistory 把两人之间最近 50 条私信按时间升序回给请求者。
func (co *Coordinator) FetchHistory(ctx context.Context, userID, peerID, connID string) {
	msgs, err := co.store.ListDirectMessages(ctx, userID, peerID, historyLimit)
	if err != nil {
		co.logger.Error().Err(err).Str("userID", userID).Str("peerID", peerID).Msg("failed to fetch message history")
		return
	}
	co.bc.Send(connID, ChatHistoryEvent(peerID), msgs)
}

// MarkRead 把对端发来的未读私信全部置为已读，不推送已读回执。
func (co *Coordinator) MarkRead(ctx context.Context, readerID, peerID string) {
	if err := co.store.MarkMessagesRead(ctx, readerID, peerID); err != nil {
		co.logger.Error().Err(err).Str("readerID", readerID).Str("peerID", peerID).Msg("failed to mark messages read")
	}
}
