// Package rollcall: реестр "перекличек" (roll call) для групп чата.
//
// Перекличка это запрос "соберите N участников" в рамках одной группы
// (гильдии). Реестр гарантирует:
//   - не более одной активной переклички на группу;
//   - каждый участник учитывается ровно один раз;
//   - перекличка, набравшая нужное число участников, удаляется тем же
//     вызовом Join, который её завершил, и больше не видна через Status/HasActive.
//
// Все операции синхронные и сериализованы одним мьютексом. Под мьютексом
// выполняется только работа с map/set: никакого сетевого I/O. Рендер
// результата в текст делает вызывающий слой уже после возврата.
//
// Пример:
//
//	reg := rollcall.NewRegistry()
//	if _, err := reg.Start("guild-1", "alice", 3); err != nil { ... }
//	out := reg.Join("guild-1", "bob")
//	fmt.Println(out.Kind, out.Remaining) // joined 2
package rollcall
