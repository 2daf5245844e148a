// Package voice держит голосовые подключения бота по гильдиям
// (self-mute/self-deaf, воспроизведение WAV) и кэш голосовых каналов
// пользователей, который наполняется событиями шлюза.
package voice
