// Package bot: командный слой m-bot поверх шлюза чат-платформы.
// Бот:
//   - слушает сообщения гильдий и разбирает команды (префикс или упоминание бота);
//   - ведёт переклички (rc start/ready/cancel/status) через rollcall.Registry;
//   - отсчитывает таймеры текстом (time) и голосом (vtime);
//   - управляет голосовым подключением (join/leave/mute/deafen, vsay);
//   - пишет метрики команд и перекличек.
//
// Жизненный цикл:
//   - Создать бота через New(Deps{...}).
//   - (Опционально) AttachGateway(client): подпишет бота на события шлюза.
//   - Запустить Start(ctx) и остановить Stop(): Stop дожидается всех
//     выполняющихся команд (в том числе длинных отсчётов).
//
// Пример:
//
//	b := bot.New(bot.Deps{Platform: gw, Config: store, Speaker: speaker, Metrics: m, Log: log})
//	b.AttachGateway(gw)
//	if err := b.Start(ctx); err != nil { return err }
//	defer b.Stop()
package bot
