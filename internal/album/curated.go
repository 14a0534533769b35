package album

import "readnook/pkg/domain"

// curatedPhotos is the fixed album set shown before any image has been
// generated. Immutable and never persisted.
var curatedPhotos = []domain.Photo{
	{
		ID:        "1",
		Src:       "/album/img1.jpg",
		Caption:   "도서관에서의 평화로운 오후",
		BookTitle: "트렌드 코리아 2026",
		Date:      "2024.11.15",
		Quote:     "미래를 예측하는 가장 좋은 방법은 미래를 만드는 것이다.",
	},
	{
		ID:        "2",
		Src:       "/album/img2.png",
		Caption:   "좋아하는 책과 함께한 시간",
		BookTitle: "다정한 사람이 이긴다",
		Date:      "2024.11.20",
		Quote:     "작은 친절이 세상을 바꾼다.",
	},
	{
		ID:        "3",
		Src:       "/album/img3.jpg",
		Caption:   "카페에서 읽은 특별한 이야기",
		BookTitle: "MOMO",
		Date:      "2024.11.25",
		Quote:     "시간은 생명이다. 그리고 생명은 우리 마음속에 깃들어 있다.",
	},
	{
		ID:        "4",
		Src:       "/album/img4.jpg",
		Caption:   "따뜻한 햇살 아래 독서",
		BookTitle: "심리학의 이해",
		Date:      "2024.11.28",
		Quote:     "자신을 아는 것이 모든 지혜의 시작이다.",
	},
	{
		ID:        "5",
		Src:       "/album/img5.jpg",
		Caption:   "밤하늘을 보며 읽던 책",
		BookTitle: "달러구트 꿈 백화점",
		Date:      "2024.11.29",
		Quote:     "꿈은 우리가 진짜 원하는 것을 보여준다.",
	},
	{
		ID:        "6",
		Src:       "/album/img6.jpg",
		Caption:   "소중한 독서의 순간들",
		BookTitle: "제로 투 원",
		Date:      "2024.11.30",
		Quote:     "경쟁하지 말고, 독점하라.",
	},
}

// CuratedPhotos returns a copy of the fixed album set.
func CuratedPhotos() []domain.Photo {
	out := make([]domain.Photo, len(curatedPhotos))
	copy(out, curatedPhotos)
	return out
}
