package eventgrp

type tx struct {
	Hash      string `json:"hash"`
	From      string `json:"from"`
	FromName  string `json:"from_name"`
	To        string `json:"to"`
	ToName    string `json:"to_name"`
	Type      string `json:"type"`
	Nonce     uint64 `json:"nonce"`
	Asset     string `json:"asset"`
	Pair      string `json:"pair,omitempty"`
	Value     string `json:"value"`
	GasPrice  uint64 `json:"gas_price"`
	Seq       uint64 `json:"seq"`
	TimeStamp uint64 `json:"timestamp"`
}
