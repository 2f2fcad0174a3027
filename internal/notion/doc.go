// Package notion implements the work-item store over the Notion API: the
// master database that holds per-recording production work and its status
// machine, and the video archive database that receives one write-once
// record per published video.
//
// Status machine (terminal states marked †):
//
//	入力済み --matched--> 処理中 --success--> 完了 †
//	処理中 --failure--> エラー (retry_count < limit) | 要手動対応 †
//	エラー --re-matched--> 処理中
package notion
