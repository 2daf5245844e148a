// Package gateway реализует WebSocket-клиент шлюза чат-платформы.
// Кадры шлюза: бинарно сериализованный protobuf structpb.Struct вида
// {"op": ..., "seq": ..., "d": {...}}.
//
// Клиент умеет:
//   - подключаться и представляться токеном (IDENTIFY);
//   - получать события READY, MESSAGE_CREATE, VOICE_STATE_UPDATE;
//   - отправлять запросы с seq и ждать RESPONSE (колбэк или синхронно);
//   - высокоуровневые методы: SendMessage, Reply, SendFile,
//     VoiceConnect/VoiceDisconnect/VoiceState/VoiceAudio.
//
// События (колбэки поля структуры):
//   - OnConnecting, OnConnected, OnReady, OnMessage, OnVoiceState,
//     OnDisconnected, OnError.
//
// Устойчивость:
//   - запись в сокет сериализована (мьютекс + write-deadline);
//   - ping каждые 10s, по pong считается задержка (Latency);
//   - при обрыве: реконнект с экспоненциальным backoff 1s..30s, ожидающие
//     колбэки получают ответ с ошибкой.
//
// Пример:
//
//	c := gateway.New(gateway.Config{URL: "wss://gw.example/ws", Token: token}, log)
//	c.OnMessage = func(m *gateway.Message) { fmt.Println(m.Content) }
//	if err := c.Connect(ctx); err != nil { log.Fatal(err) }
//	defer c.Disconnect()
//
//	_ = c.SendMessage(ctx, channelID, "Hello!")
package gateway
