// Package main はdaichoctlコマンドの実装です
package main

func main() {
	Execute()
}
