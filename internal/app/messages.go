package app

// User-facing chat strings. Every assistant failure is converted into one
// of these at the operation boundary; nothing is thrown past it.
const (
	msgNoAnswer      = "응답을 가져오지 못했어요."
	msgAskFailed     = "❌ 서버 오류가 발생했습니다."
	msgNoSummary     = "요약을 가져오지 못했어요."
	msgSummaryFailed = "❌ 요약 생성 중 오류가 발생했습니다."

	msgGuardNotice = "입력 문장이 길어 75토큰 이하로 요약해 생성합니다:\n"
	msgGuardFailed = "요약에 실패했어요. 원문으로 이미지를 생성합니다."

	msgImageDone    = "이미지를 생성했어요."
	msgImageEmpty   = "❌ 이미지를 가져오지 못했어요."
	msgImageFailed  = "❌ 이미지 생성 중 오류가 발생했습니다."
	msgImageTimeout = "❌ 이미지 생성 시간이 초과되었습니다. 잠시 후 다시 시도해주세요."
	msgImageDefault = "이미지 생성 서버가 준비되지 않았습니다. 모델 파일을 확인해주세요."

	msgAlbumSaved  = "📸 생성된 이미지를 앨범에 저장했어요."
	msgAlbumFailed = "⚠️ 앨범 저장에 실패했어요."

	suffixSummarize = " 요약해줘"
	suffixGenerate  = " 이미지 생성해줘"
)
